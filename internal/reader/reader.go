package reader

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/service"
)

// Reader consumes one credential UID per line from the scan input (the
// RFID reader presents as a keyboard-wedge stream on stdin) and runs each
// scan through the validator, one at a time, to completion. There is no
// overlap between validations; scans arriving mid-validation queue up in
// the input buffer.
type Reader struct {
	in        io.Reader
	validator service.Validator
	log       *logger.Logger
}

func New(in io.Reader, validator service.Validator, log *logger.Logger) *Reader {
	return &Reader{in: in, validator: validator, log: log}
}

// Run blocks until the input stream ends or ctx is canceled between scans.
// A read blocked on the stream is only interrupted by process shutdown,
// which is handled at the top level.
func (r *Reader) Run(ctx context.Context) error {
	r.log.Infow("rfid_reader_active")

	sc := bufio.NewScanner(r.in)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		uid := strings.TrimSpace(sc.Text())
		if uid == "" {
			continue
		}

		r.log.Infow("credential_scanned", "uid", uid)
		r.validator.Validate(ctx, uid)
	}
	return sc.Err()
}
