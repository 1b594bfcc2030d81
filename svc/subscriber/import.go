package subscriber

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/dmitrymomot/newsletter/pkg/logger"
)

// maxImportErrors caps the error messages returned by BulkImport.
const maxImportErrors = 10

// ImportInput carries the CSV body and the provenance stamped on new records.
type ImportInput struct {
	CSV       io.Reader
	IP        string
	UserAgent string
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Invalid int      `json:"invalid"`
	Errors  []string `json:"errors"`
}

func (r *ImportResult) addError(msg string) {
	if len(r.Errors) < maxImportErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// BulkImport adds one address per line as an active subscriber, bypassing
// confirmation. Only the first comma separated column of a line is used.
// Addresses already present in any state are skipped.
func (s *Service) BulkImport(ctx context.Context, in ImportInput) (res ImportResult, err error) {
	defer func() { s.observe(EventImport, err) }()

	res.Errors = []string{}
	if in.CSV == nil {
		return res, newError(KindInvalid, MsgCSVRequired, nil)
	}

	scanner := bufio.NewScanner(in.CSV)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	// Records written before a failure still count.
	defer func() {
		if res.Added > 0 {
			if _, err := s.store.IncrementCount(ctx, res.Added); err != nil {
				s.log.ErrorContext(ctx, "failed to update subscriber count", logger.Error(err))
			}
		}
	}()

	now := s.now()
	for scanner.Scan() {
		addr := importAddress(scanner.Text())
		if addr == "" {
			continue
		}
		if !ValidEmail(addr) {
			res.Invalid++
			res.addError("Invalid email format: " + addr)
			continue
		}

		existing, err := s.lookup(ctx, addr)
		if err != nil {
			return res, storeError(err, MsgBulkUploadFailed)
		}
		if _, err := transition(ctx, existing, EventImport, now); err != nil {
			if e, ok := AsError(err); ok && e.Kind == KindConflict {
				res.Skipped++
				continue
			}
			return res, err
		}

		sub := &Subscriber{
			Email:        addr,
			SubscribedAt: now,
			Status:       StatusActive,
			ConfirmedAt:  timePtr(now),
			// Imported subscribers still need a working unsubscribe link.
			UnsubscribeToken: s.newToken(),
			UserAgent:        in.UserAgent,
			IP:               in.IP,
			Source:           SourceImport,
		}
		if err := s.store.Put(ctx, sub); err != nil {
			return res, storeError(err, MsgBulkUploadFailed)
		}
		res.Added++
	}
	if err := scanner.Err(); err != nil {
		return res, newError(KindInvalid, MsgBulkUploadFailed, err)
	}

	s.log.InfoContext(ctx, "bulk import finished",
		logger.Count("added", res.Added),
		logger.Count("skipped", res.Skipped),
		logger.Count("invalid", res.Invalid),
	)
	return res, nil
}

func importAddress(line string) string {
	field, _, _ := strings.Cut(line, ",")
	field = strings.Trim(strings.TrimSpace(field), `"'`)
	return NormalizeEmail(field)
}
