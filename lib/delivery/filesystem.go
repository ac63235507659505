package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"netentreprise-backend/lib/assert"
	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/telemetry"
)

const (
	report_filesystem_save      = "filesystem.save"
	report_filesystem_collision = "filesystem.collision"
)

// FilesystemSaver writes every bill to <Dir>/<identifier>/<filename> with a
// json sidecar holding its metadata. Existing files are left untouched so
// saving the same bills twice is a no-op. A file of another period with the
// same name is kept, the bill then goes to <name>-<period>.pdf.
type FilesystemSaver struct {
	Dir string
	tel telemetry.API
}

func NewFilesystemSaver(dir string, tel telemetry.API) FilesystemSaver {
	assert.NotEmptyStr(dir)
	assert.NotNil(tel)
	return FilesystemSaver{Dir: dir, tel: telemetry.NewScopedAPI("delivery", tel)}
}

type sidecar struct {
	Vendor      string    `json:"vendor"`
	Period      string    `json:"period"`
	Amount      int64     `json:"amount_cents"`
	AmountEuros string    `json:"amount"`
	Date        time.Time `json:"date"`
	ContentType string    `json:"content_type"`
	Identifiers []string  `json:"identifiers"`
}

func (s FilesystemSaver) Save(ctx context.Context, bills []declaration.Bill, opts Options) error {
	dir := filepath.Join(s.Dir, opts.folder())
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	written := 0
	for _, bill := range bills {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(bill.Content) == 0 {
			return fmt.Errorf("bill %s has no content", bill.Filename)
		}

		path, exists, err := s.target(dir, bill)
		if err != nil {
			return err
		}
		if exists {
			s.tel.ReportDebug("file already exists, skipping", path)
			continue
		}

		err = os.WriteFile(path, bill.Content, 0644)
		if err != nil {
			s.tel.ReportBroken(report_filesystem_save, err, path)
			return fmt.Errorf("write %s: %w", path, err)
		}
		meta, err := json.MarshalIndent(sidecar{
			Vendor:      bill.Vendor,
			Period:      bill.Period.String(),
			Amount:      bill.Amount,
			AmountEuros: FormatAmount(bill.Amount),
			Date:        bill.Date,
			ContentType: opts.contentType(),
			Identifiers: opts.Identifiers,
		}, "", "  ")
		if err != nil {
			return err
		}
		err = os.WriteFile(path+".json", meta, 0644)
		if err != nil {
			s.tel.ReportBroken(report_filesystem_save, err, path)
			return fmt.Errorf("write metadata of %s: %w", path, err)
		}
		written++
	}

	s.tel.ReportCount(report_filesystem_save, int64(written))
	return nil
}

// target returns where `bill` goes and whether it was already saved there.
func (s FilesystemSaver) target(dir string, bill declaration.Bill) (string, bool, error) {
	path := filepath.Join(dir, bill.Filename)
	owner, err := savedPeriod(path)
	if err != nil || owner == "" {
		return path, owner != "", err
	}
	if owner == bill.Period.String() || owner == "?" {
		return path, true, nil
	}

	ext := filepath.Ext(bill.Filename)
	alternate := filepath.Join(dir, fmt.Sprintf("%s-%s%s", strings.TrimSuffix(bill.Filename, ext), bill.Period, ext))
	s.tel.ReportWarning(report_filesystem_collision, path, owner, bill.Period.String(), alternate)
	owner, err = savedPeriod(alternate)
	return alternate, owner != "", err
}

// savedPeriod returns the period of the file at `path` from its sidecar, "?"
// when it has none and "" when there is no file.
func savedPeriod(path string) (string, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	contents, err := os.ReadFile(path + ".json")
	if err != nil {
		return "?", nil
	}
	var meta sidecar
	if json.Unmarshal(contents, &meta) != nil || meta.Period == "" {
		return "?", nil
	}
	return meta.Period, nil
}
