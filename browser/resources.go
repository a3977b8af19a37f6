package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var resourceTypeMap = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// applyResourceBlocking installs a Fetch-domain interceptor on the page
// that fails requests for the configured resource types. Unknown names in
// the config are an error so typos surface at startup rather than as
// silently unblocked resources.
func applyResourceBlocking(page *rod.Page, blocked []string) error {
	if len(blocked) == 0 {
		return nil
	}

	want := make(map[proto.NetworkResourceType]bool, len(blocked))
	for _, name := range blocked {
		rt, ok := resourceTypeMap[name]
		if !ok {
			return fmt.Errorf("browser: unknown resource type %q", name)
		}
		want[rt] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if want[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}
