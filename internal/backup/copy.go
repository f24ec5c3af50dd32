package backup

import (
	"io"
	"os"
)

// copyFile copies src to dst and fsyncs dst. It returns the bytes written.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, err
	}

	return n, out.Sync()
}
