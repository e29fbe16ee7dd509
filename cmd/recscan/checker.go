package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/channel"
	"github.com/S0me0neR0man/recaccess/internal/config"
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/recfile"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// pattern drives one scan and returns the record numbers it saw.
type pattern struct {
	name string
	run  func(ctx context.Context, f *recfile.File) ([]int64, error)
}

var patterns = []pattern{
	{name: "forward", run: forward},
	{name: "backward", run: backward},
	{name: "zigzag", run: zigzag},
}

type pass struct {
	numbers []int64
	rounds  int
}

type result struct {
	pattern   string
	records   int
	blocked   int
	unblocked int
	mismatch  string
	err       error
}

func (r result) String() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("%-8s error: %v\n", r.pattern, r.err)
	case r.mismatch != "":
		return fmt.Sprintf("%-8s MISMATCH %s\n", r.pattern, r.mismatch)
	}
	return fmt.Sprintf("%-8s ok  %s records, %s round trips blocked, %s unblocked\n",
		r.pattern, humanize.Comma(int64(r.records)), humanize.Comma(int64(r.blocked)), humanize.Comma(int64(r.unblocked)))
}

// Checker scans one remote file with a blocked and an unblocked session
// per pattern and reports where they disagree.
type Checker struct {
	results chan result

	checks sync.WaitGroup
	wg     sync.WaitGroup

	client *channel.Client
	conf   *config.Config
	tag    language.Tag
	sugar  *zap.SugaredLogger

	mu     sync.Mutex
	failed bool
}

func NewChecker(client *channel.Client, conf *config.Config, logger *zap.Logger) (*Checker, error) {
	tag, err := language.Parse(conf.Locale)
	if err != nil {
		return nil, err
	}
	return &Checker{
		client:  client,
		conf:    conf,
		tag:     tag,
		sugar:   logger.Sugar(),
		results: make(chan result),
	}, nil
}

func (c *Checker) Go(ctx context.Context) {
	c.checks.Add(len(patterns))
	for _, p := range patterns {
		go c.check(ctx, p)
	}
	go func() {
		c.checks.Wait()
		close(c.results)
	}()

	c.wg.Add(1)
	go c.display()
}

// Wait blocks until every pattern reported and returns whether any failed.
func (c *Checker) Wait() bool {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Checker) display() {
	defer c.wg.Done()

	for r := range c.results {
		if r.err != nil || r.mismatch != "" {
			c.mu.Lock()
			c.failed = true
			c.mu.Unlock()
		}
		if _, err := fmt.Fprint(os.Stdout, r.String()); err != nil {
			c.sugar.Errorw("fprint stdout", "err", err)
		}
	}
}

func (c *Checker) check(ctx context.Context, p pattern) {
	defer c.checks.Done()
	c.sugar.Debugw("check start", "pattern", p.name, "file", c.conf.File)

	res := result{pattern: p.name}
	blocked, err := c.scan(ctx, p, c.conf.BlockingFactor)
	if err == nil {
		var unblocked pass
		unblocked, err = c.scan(ctx, p, 1)
		res.records = len(unblocked.numbers)
		res.blocked = blocked.rounds
		res.unblocked = unblocked.rounds
		res.mismatch = compare(blocked.numbers, unblocked.numbers)
	}
	res.err = err

	c.sugar.Debugw("check done", "pattern", p.name, "err", err)
	c.results <- res
}

func (c *Checker) scan(ctx context.Context, p pattern, blockingFactor int) (pass, error) {
	meter := host.NewMeter()
	ch := host.NewChain(meter.Middleware()).Then(c.client.NewChannel())
	f := recfile.New(ch, recfile.Options{Name: c.conf.File, Locale: c.tag}, c.sugar.Desugar())

	if err := f.Open(ctx, host.ReadOnly, blockingFactor); err != nil {
		return pass{}, err
	}
	meter.Reset()

	numbers, err := p.run(ctx, f)
	rounds := meter.Total()
	if cerr := f.Close(ctx); err == nil {
		err = cerr
	}
	return pass{numbers: numbers, rounds: rounds}, err
}

func compare(blocked, unblocked []int64) string {
	for i := range blocked {
		if i >= len(unblocked) {
			return fmt.Sprintf("blocked scan has %d extra records from #%d", len(blocked)-i, i)
		}
		if blocked[i] != unblocked[i] {
			return fmt.Sprintf("read #%d: blocked got record %d, unblocked %d", i, blocked[i], unblocked[i])
		}
	}
	if len(unblocked) > len(blocked) {
		return fmt.Sprintf("blocked scan misses %d records from #%d", len(unblocked)-len(blocked), len(blocked))
	}
	return ""
}

type readFunc func(ctx context.Context) (*record.Record, error)

// collect calls read until it returns nil and appends the record numbers.
func collect(ctx context.Context, numbers []int64, first readFunc, next readFunc) ([]int64, error) {
	rec, err := first(ctx)
	for rec != nil && err == nil {
		numbers = append(numbers, rec.RecordNumber())
		rec, err = next(ctx)
	}
	return numbers, err
}

func forward(ctx context.Context, f *recfile.File) ([]int64, error) {
	return collect(ctx, nil, f.ReadFirst, f.ReadNext)
}

func backward(ctx context.Context, f *recfile.File) ([]int64, error) {
	return collect(ctx, nil, f.ReadLast, f.ReadPrevious)
}

// zigzag steps back once every fourth read until it reaches the end of
// the file.
func zigzag(ctx context.Context, f *recfile.File) ([]int64, error) {
	var numbers []int64

	rec, err := f.ReadFirst(ctx)
	for step := 1; rec != nil && err == nil; step++ {
		numbers = append(numbers, rec.RecordNumber())
		if step%4 == 0 {
			rec, err = f.ReadPrevious(ctx)
		} else {
			rec, err = f.ReadNext(ctx)
		}
	}
	return numbers, err
}
