// Package scan checks downloaded content with ClamAV before it is handed to
// a media extractor.
package scan

import (
	"context"
	"fmt"
	"os"

	clamd "github.com/dutchcoders/go-clamd"
)

type Verdict struct {
	Infected  bool
	Signature string
}

type Scanner interface {
	ScanFile(ctx context.Context, path string) (Verdict, error)
}

type ClamAV struct {
	client *clamd.Clamd
}

// NewClamAV takes a clamd address such as "tcp://clamav:3310".
func NewClamAV(address string) *ClamAV {
	return &ClamAV{client: clamd.NewClamd(address)}
}

func (c *ClamAV) Ping() error {
	return c.client.Ping()
}

// ScanFile streams the file to clamd so the daemon does not need access to
// the worker's filesystem.
func (c *ClamAV) ScanFile(ctx context.Context, path string) (Verdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return Verdict{}, err
	}
	defer f.Close()

	abort := make(chan bool)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			close(abort)
		case <-done:
		}
	}()

	results, err := c.client.ScanStream(f, abort)
	if err != nil {
		return Verdict{}, fmt.Errorf("scan failed: %w", err)
	}
	return verdictFrom(results)
}

func verdictFrom(results <-chan *clamd.ScanResult) (Verdict, error) {
	var v Verdict
	var scanErr error
	for res := range results {
		switch res.Status {
		case clamd.RES_FOUND:
			v.Infected = true
			v.Signature = res.Description
		case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
			scanErr = fmt.Errorf("scan error: %s", res.Description)
		}
	}
	if scanErr != nil && !v.Infected {
		return Verdict{}, scanErr
	}
	return v, nil
}
