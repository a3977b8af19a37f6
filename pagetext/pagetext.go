// Package pagetext turns captured page HTML into markdown the model can
// read alongside the mark list. Input is sanitized first: captured markup
// is third-party and untrusted.
package pagetext

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Converter sanitizes and converts page HTML to markdown.
type Converter struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// NewConverter creates a Converter with the UGC sanitation policy.
func NewConverter() *Converter {
	return &Converter{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Markdown sanitizes html and converts it to markdown. pageURL resolves
// relative links; it may be empty.
func (c *Converter) Markdown(html, pageURL string) (string, error) {
	clean := c.policy.Sanitize(html)
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	out, err := c.md.ConvertString(clean, opts...)
	if err != nil {
		return "", fmt.Errorf("pagetext: convert: %w", err)
	}
	return strings.TrimSpace(out), nil
}
