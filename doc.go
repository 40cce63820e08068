// Package docpager lays out quotes, invoices and letterheads across a bounded
// number of printable pages.
//
// # Quick Start
//
// Load a saved document, compose it, and close the composer when done:
//
//	comp, err := docpager.NewComposer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer comp.Close()
//
//	doc, err := docpager.NewLoader().LoadFile(ctx, "quote.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := comp.Compose(ctx, docpager.Input{Document: doc, PDF: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("quote.pdf", result.PDF, 0644)
//
// result.Report tells how many pages were laid out and whether anything was
// left off because of the page cap.
//
// # Layout Pass
//
// Every refresh rebuilds the base page from the document, then runs, in
// order:
//
//  1. Line items, 12 rows on the base page and 22 per continuation page
//     (letterhead body instead, in letterhead mode)
//  2. Acceptance block, after the last items page (quotes only)
//  3. Notes, after the acceptance block (quotes only)
//  4. Payment advice, after the notes (invoices only)
//  5. Overflow check of the last page (quotes only)
//  6. Page numbers, header text and background
//
// Content that does not fit on the last allowed page is not placed.
//
// # Live Editing
//
// A Session keeps the preview of one document. Edits are debounced:
//
//	s, err := comp.NewSession(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	s.OnRefresh(func(r *docpager.Report, err error) { ... })
//	s.Edit(func(d *docpager.Document) {
//	    d.AddLineItem(docpager.LineItem{Description: "Labour", Quantity: 8, UnitPrice: 65})
//	})
//
// # Layout Engines
//
// EngineModel, the default, stacks blocks with fixed metrics (see Geometry).
// EngineChrome measures the real layout in headless Chrome:
//
//	comp, err := docpager.NewComposer(docpager.WithLayout(docpager.EngineChrome))
//
// # Parallel Processing
//
// For batch composition, use ComposerPool to manage multiple browser
// instances:
//
//	pool := docpager.NewComposerPool(docpager.ResolvePoolSize(0))
//	defer pool.Close()
//
//	comp, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(comp)
//	result, err := comp.Compose(ctx, input)
//
// # Browser Requirements
//
// The chrome engine and PDF export require Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run
// (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package docpager
