package ocr

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"time"
)

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		log.Printf("ocr.Runner: %s failed after %dms: %v", name, time.Since(start).Milliseconds(), err)
	}
	return out.Bytes(), errb.Bytes(), err
}
