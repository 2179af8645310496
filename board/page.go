/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"fmt"
	"strings"
)

// PageSize is a sheet of paper, measured in millimeters.
type PageSize struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultPage is the page a new board starts on.
var DefaultPage = PageSize{Name: "A5", Width: 148, Height: 210}

// PageSizes lists the supported ISO 216 sheets, largest first.
var PageSizes = []PageSize{
	{Name: "A0", Width: 841, Height: 1189},
	{Name: "A1", Width: 594, Height: 841},
	{Name: "A2", Width: 420, Height: 594},
	{Name: "A3", Width: 297, Height: 420},
	{Name: "A4", Width: 210, Height: 297},
	DefaultPage,
}

// LookupPageSize returns the page size with the given name, ignoring case.
func LookupPageSize(name string) (PageSize, error) {
	for _, p := range PageSizes {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	return PageSize{}, fmt.Errorf("%w: %q", ErrUnknownPageSize, name)
}

// PageNames returns the names of all supported page sizes.
func PageNames() []string {
	names := make([]string, 0, len(PageSizes))
	for _, p := range PageSizes {
		names = append(names, p.Name)
	}
	return names
}
