package browser

import _ "embed"

// captureJS serializes one document into the snapshot JSON the dom
// package decodes. Evaluated per frame on every observation.
//
//go:embed capture.js
var captureJS string

// overlayJS is the in-page companion of the overlay package: it swaps
// native select dropdowns for synthetic listboxes rendered inside the
// viewport. Installed on every new document.
//
//go:embed overlay.js
var overlayJS string
