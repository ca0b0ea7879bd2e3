package thumbnail

import (
	"context"
	"fmt"
)

// PDFExtractor rasterizes the first page with Ghostscript at 150 DPI, fitted
// to the bounding box.
type PDFExtractor struct {
	run    CommandRunner
	binary string
}

func (e *PDFExtractor) Extract(ctx context.Context, src, dst string) error {
	return runTool(ctx, e.run, dst, e.binary,
		"-q",
		"-dSAFER",
		"-dNOPAUSE",
		"-dBATCH",
		"-dFirstPage=1",
		"-dLastPage=1",
		"-sDEVICE=jpeg",
		fmt.Sprintf("-dJPEGQ=%d", JPEGQuality),
		"-r150",
		fmt.Sprintf("-dDEVICEWIDTHPOINTS=%d", MaxWidth),
		fmt.Sprintf("-dDEVICEHEIGHTPOINTS=%d", MaxHeight),
		"-dPDFFitPage",
		"-sOutputFile="+dst,
		src,
	)
}
