package placement

import (
	"strconv"

	"github.com/alnah/go-docpager/internal/dom"
	"github.com/alnah/go-docpager/internal/pages"
	"github.com/alnah/go-docpager/internal/paginate"
	"go.uber.org/zap"
)

func spacing(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64) + "px"
}

// positionAcceptance moves the acceptance block to the bottom of the last
// items page, or of the base page when there is none.
//
// In quote mode the block keeps SignatureSpacing above it. When that does not
// fit, it moves to a signature page of its own; at the page cap the spacing
// shrinks to FallbackSpacing instead and the block may touch the footer.
// Other modes keep the block hidden but still park it after the items so the
// payment advice anchored to it lands after them.
func (c *Coordinator) positionAcceptance(mode Mode) {
	accept := c.acceptance()
	if accept == nil {
		return
	}
	c.pag.ClearSignature()
	if mode == Letterhead {
		dom.SetStyle(accept, "margin-top", "")
		return
	}

	s := c.pag.Stream()
	target := s.LastOfKind(pages.KindItems)
	if target.IsZero() {
		target = s.Base()
	}
	if target.IsZero() || target.Footer() == nil {
		return
	}
	target.InsertBeforeFooter(accept)

	if mode != Quote {
		dom.SetStyle(accept, "margin-top", "")
		return
	}
	dom.SetStyle(accept, "margin-top", spacing(SignatureSpacing))

	gauge := c.pag.Gauge()
	gauge.Provider().DeferUntilLayout(func() {
		r, ok := gauge.Measure(accept)
		if !ok {
			return
		}
		available, ok := gauge.AvailableHeight(target.Node(), r.Top)
		if !ok || available >= r.Height+SignatureSpacing {
			return
		}
		page, ok := c.pag.NewPage(paginate.SignaturePolicy, target)
		if !ok {
			dom.SetStyle(accept, "margin-top", spacing(FallbackSpacing))
			c.log.Debug("acceptance spacing collapsed at page cap")
			return
		}
		page.InsertBeforeFooter(accept)
		c.log.Debug("acceptance promoted to signature page",
			zap.Float64("available", available),
			zap.Float64("needed", r.Height+SignatureSpacing),
		)
	})
}
