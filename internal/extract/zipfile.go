package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// fromZip parses supported members concurrently. Member count and size caps
// keep a crafted archive from exhausting the process.
func fromZip(name string, data []byte, opt Options) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open zip %s: %w", name, err)
	}

	var members []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := filepath.Base(f.Name)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "__MACOSX") {
			continue
		}
		// nested archives are not descended into
		if strings.EqualFold(filepath.Ext(base), ".zip") {
			continue
		}
		if !Supported(base) {
			continue
		}
		members = append(members, f)
		if opt.MaxZipMembers > 0 && len(members) >= opt.MaxZipMembers {
			break
		}
	}

	workers := opt.ZipWorkers
	if workers <= 0 {
		workers = 1
	}

	type memberResult struct {
		idx int
		res Result
		err error
	}

	jobs := make(chan int)
	results := make(chan memberResult, len(members))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := parseZipMember(name, members[idx], opt)
				results <- memberResult{idx: idx, res: res, err: err}
			}
		}()
	}
	for i := range members {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	ordered := make([]memberResult, len(members))
	for r := range results {
		ordered[r.idx] = r
	}

	out := Result{Stats: Stats{}}
	for _, r := range ordered {
		if r.err != nil {
			out.Stats["zip_member_errors"]++
			continue
		}
		out.Hits = append(out.Hits, r.res.Hits...)
		out.Stats.Merge(r.res.Stats)
	}
	out.Hits = dedupeHits(out.Hits)
	return out, nil
}

func parseZipMember(archive string, f *zip.File, opt Options) (Result, error) {
	if opt.MaxMemberSize > 0 && f.UncompressedSize64 > uint64(opt.MaxMemberSize) {
		return Result{}, fmt.Errorf("zip member %s exceeds size cap", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	limit := opt.MaxMemberSize
	if limit <= 0 {
		limit = 50 << 20
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return Result{}, err
	}
	if int64(len(data)) > limit {
		return Result{}, fmt.Errorf("zip member %s exceeds size cap", f.Name)
	}
	return FromFileBytes(archive+"/"+filepath.Base(f.Name), data, opt)
}
