// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bqsr/covariate"
	"github.com/grailbio/bqsr/recal"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

var (
	outPath     = flag.String("out", "bqsr-covariates.tsv", "Output TSV path; a .gz suffix selects BGZF compression")
	parallelism = flag.Int("parallelism", recal.DefaultOpts.Parallelism, "Number of reads recorded in parallel; 0 = runtime.NumCPU()")
	batchSize   = flag.Int("batch-size", recal.DefaultOpts.BatchSize, "Number of reads buffered per parallel batch")
	covariates  = flag.String("covariates", "", "Comma-separated covariates recorded after ReadGroup,QualityScore,Context,Cycle; any of RepeatUnit, RepeatLength, RepeatUnitAndLength")

	forceReadGroup        = flag.String("force-read-group", covariate.DefaultOpts.ForceReadGroup, "If nonempty, replaces the read group of every read")
	lowQualTail           = flag.Int("low-quality-tail", int(covariate.DefaultOpts.LowQualTail), "Qualities up to this value at either read end are masked when computing contexts")
	mismatchesContextSize = flag.Int("mismatches-context-size", covariate.DefaultOpts.MismatchesContextSize, "Context length for mismatches, in [1, 13]")
	indelsContextSize     = flag.Int("indels-context-size", covariate.DefaultOpts.IndelsContextSize, "Context length for insertions and deletions, in [1, 13]")
	maxSTRUnitLength      = flag.Int("max-str-unit-length", covariate.DefaultOpts.MaxSTRUnitLength, "Longest tandem repeat unit considered")
	maxRepeatLength       = flag.Int("max-repeat-length", covariate.DefaultOpts.MaxRepeatLength, "Repeat counts above this value are clamped")
	maximumCycleValue     = flag.Int("maximum-cycle-value", covariate.DefaultOpts.MaximumCycleValue, "Longest read accepted; longer reads are an error")
	cushionForIndels      = flag.Int("cushion-for-indels", covariate.DefaultOpts.CushionForIndels, "Bases at either read end without an indel cycle")

	minMapQ       = flag.Int("min-mapq", recal.DefaultOpts.MinMapQ, "Reads with MAPQ below this level are skipped")
	maxInsertSize = flag.Int("max-insert-size", recal.DefaultOpts.MaxInsertSize, "If positive, paired reads with |TLEN| above this value are skipped")
	filterExpr    = flag.String("filter", recal.DefaultOpts.Filter, "Filter expression each read must satisfy; see -help")
	bedPath       = flag.String("bed", recal.DefaultOpts.BedPath, "Only record reads overlapping these BED intervals; at most one of -bed and -region")
	region        = flag.String("region", recal.DefaultOpts.Region, "Only record reads overlapping <contig>:<1-based first pos>-<last pos>, <contig>:<1-based pos>, or <contig>")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] input.{bam,sam,sam.gz}\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\n%s", recal.FilterHelp)
}

// recordReader is implemented by both sam.Reader and bam.Reader.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// openInput returns a reader over a BAM, SAM or gzipped SAM file, chosen by
// path suffix.  The returned closer must be called once reading is done.
func openInput(ctx context.Context, path string) (reader recordReader, closer func() error, err error) {
	var f file.File
	if f, err = file.Open(ctx, path); err != nil {
		return nil, nil, errors.Wrapf(err, "open %v", path)
	}
	closer = func() error { return f.Close(ctx) }
	in := io.Reader(f.Reader(ctx))
	switch {
	case strings.HasSuffix(path, ".bam"):
		reader, err = bam.NewReader(in, runtime.NumCPU())
	case fileio.DetermineType(path) == fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(in); err == nil {
			reader, err = sam.NewReader(gz)
		}
	default:
		reader, err = sam.NewReader(in)
	}
	if err != nil {
		_ = closer()
		return nil, nil, errors.Wrapf(err, "read header of %v", path)
	}
	return reader, closer, nil
}

// writeCensus writes the census TSV, BGZF-compressed if path ends in .gz.
func writeCensus(ctx context.Context, census *recal.Census, path string, parallelism int) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.Wrapf(err, "create %v", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if !strings.HasSuffix(path, ".gz") {
		return census.WriteTSV(out.Writer(ctx))
	}
	w := bgzf.NewWriter(out.Writer(ctx), parallelism)
	if err = census.WriteTSV(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// run records covariates for every read in inPath and writes the census to
// outPath.
func run(ctx context.Context, inPath, outPath string, opts *recal.Opts) (err error) {
	reader, closer, err := openInput(ctx, inPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	log.Printf("%s: recording %s with %v", inPath, covariateNames(opts.Extra), opts.Covariates)
	census, err := recal.CollectReader(ctx, reader.Header(), reader, opts)
	if err != nil {
		return err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if err = writeCensus(ctx, census, outPath, parallelism); err != nil {
		return err
	}
	log.Printf("wrote %s", outPath)
	return nil
}

func covariateNames(extra []covariate.Kind) string {
	l, err := covariate.NewCovariateList(extra...)
	if err != nil {
		return fmt.Sprint(extra)
	}
	return l.CovariateNames()
}

// parseCovariates parses the -covariates flag.
func parseCovariates(s string) ([]covariate.Kind, error) {
	if s == "" {
		return nil, nil
	}
	var kinds []covariate.Kind
	for _, name := range strings.Split(s, ",") {
		kind, ok := covariate.ParseKind(strings.TrimSpace(name))
		if !ok {
			return nil, errors.Errorf("unknown covariate %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("expected one input path, got %d: '%s'", flag.NArg(), strings.Join(flag.Args(), " "))
	}
	if *lowQualTail < 0 || *lowQualTail > covariate.MaxQuality {
		log.Fatalf("-low-quality-tail must be in [0, %d], got %d", covariate.MaxQuality, *lowQualTail)
	}
	extra, err := parseCovariates(*covariates)
	if err != nil {
		log.Fatalf("-covariates: %v", err)
	}
	opts := recal.Opts{
		Covariates: covariate.Opts{
			ForceReadGroup:        *forceReadGroup,
			LowQualTail:           byte(*lowQualTail),
			MismatchesContextSize: *mismatchesContextSize,
			IndelsContextSize:     *indelsContextSize,
			MaxSTRUnitLength:      *maxSTRUnitLength,
			MaxRepeatLength:       *maxRepeatLength,
			MaximumCycleValue:     *maximumCycleValue,
			CushionForIndels:      *cushionForIndels,
		},
		Extra:         extra,
		Parallelism:   *parallelism,
		BatchSize:     *batchSize,
		MinMapQ:       *minMapQ,
		MaxInsertSize: *maxInsertSize,
		Filter:        *filterExpr,
		BedPath:       *bedPath,
		Region:        *region,
	}
	ctx := vcontext.Background()
	if err := run(ctx, flag.Arg(0), *outPath, &opts); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
