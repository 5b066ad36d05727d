// Command smoke runs the extraction pipeline against local fixture files
// and verifies the resulting address set, without touching Telegram, SMTP,
// or any backing store. It is meant for pre-deploy sanity checks:
//
//	smoke --pdf fixtures/list.pdf --zip fixtures/batch.zip \
//	      --expect ivanov@example.ru --expect info@corp.com -v
//
// Exit code is 0 when every check passes and 1 otherwise.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"telegram-email-bot/internal/emailaddr"
	"telegram-email-bot/internal/extract"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("empty value")
	}
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		pdfs     stringList
		zips     stringList
		expect   stringList
		allowNum = flag.Bool("allow-numeric", false, "keep addresses whose local part is digits only")
		verbose  = flag.Bool("v", false, "verbose per-file diagnostics")
	)
	flag.Var(&pdfs, "pdf", "PDF file to extract from (repeatable)")
	flag.Var(&zips, "zip", "ZIP archive to extract from (repeatable)")
	flag.Var(&expect, "expect", "address that must appear in the result (repeatable)")
	flag.Parse()

	inputs := append(append(stringList{}, pdfs...), zips...)
	inputs = append(inputs, flag.Args()...)
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "smoke: no input files; pass --pdf/--zip or positional paths")
		flag.Usage()
		os.Exit(2)
	}

	opt := extract.DefaultOptions()
	opt.AllowNumeric = *allowNum

	seen := make(map[string]struct{})
	var order []string
	failed := false

	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
			failed = true
			continue
		}
		res, err := extract.FromFileBytes(filepath.Base(path), data, opt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
			failed = true
			continue
		}
		emails := res.Emails()
		fmt.Printf("%s: %d address(es)%s\n", path, len(emails), previewSuffix(emails))
		if *verbose {
			printStats(res.Stats)
		}
		for _, e := range emails {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			order = append(order, e)
		}
	}

	fmt.Printf("total unique: %d\n", len(order))
	if *verbose {
		for _, e := range order {
			fmt.Printf("  %s\n", e)
		}
	}

	if !*allowNum {
		for _, e := range order {
			if emailaddr.NumericLocal(e) {
				fmt.Fprintf(os.Stderr, "FAIL numeric local part slipped through: %s\n", e)
				failed = true
			}
		}
	}

	for _, want := range expect {
		key := emailaddr.CanonicalKey(want)
		if _, ok := seen[key]; !ok {
			fmt.Fprintf(os.Stderr, "FAIL expected address missing: %s\n", want)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("OK")
}

// previewSuffix renders up to three sample addresses after the count.
func previewSuffix(emails []string) string {
	if len(emails) == 0 {
		return ""
	}
	sample := extract.SamplePreview(emails, 3)
	extra := ""
	if len(emails) > len(sample) {
		extra = fmt.Sprintf(", +%d more", len(emails)-len(sample))
	}
	return fmt.Sprintf(" [%s%s]", strings.Join(sample, ", "), extra)
}

func printStats(stats extract.Stats) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  stat %s=%d\n", k, stats[k])
	}
}
