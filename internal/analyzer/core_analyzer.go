package analyzer

import (
	"image"
	"sync"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"

	"github.com/sirupsen/logrus"
)

// coreAnalyzer implements BrandAnalyzer. Verify classifies against the two
// palettes in parallel on the worker pool.
type coreAnalyzer struct {
	workerPool *WorkerPool
}

// NewBrandAnalyzer creates an analyzer backed by a pool of the given size
// (0 means one worker per CPU).
func NewBrandAnalyzer(workers int) BrandAnalyzer {
	workerPool := NewWorkerPool(workers)
	workerPool.Start()

	return &coreAnalyzer{workerPool: workerPool}
}

func (ca *coreAnalyzer) Classify(img image.Image, pal palette.Palette, opts matcher.Options) (*matcher.Result, error) {
	start := time.Now()
	result, err := matcher.Classify(img, pal, opts)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"palette":    len(pal),
		"pixels":     result.TotalPixels,
		"matched":    result.MatchedPixels,
		"unexpected": result.UnexpectedPixels,
		"duration":   time.Since(start).String(),
	}).Debug("Classification completed")
	return result, nil
}

func (ca *coreAnalyzer) Verify(img image.Image, brand, wrong palette.Palette, opts matcher.Options) (*Verification, error) {
	if len(wrong) == 0 {
		return Verify(img, brand, nil, opts)
	}

	var (
		wg                       sync.WaitGroup
		brandResult, wrongResult *matcher.Result
		brandErr, wrongErr       error
	)
	ca.run(&wg, func() { brandResult, brandErr = ca.Classify(img, brand, opts) })
	ca.run(&wg, func() { wrongResult, wrongErr = ca.Classify(img, wrong, opts) })
	wg.Wait()

	if brandErr != nil {
		return nil, brandErr
	}
	if wrongErr != nil {
		return nil, wrongErr
	}
	return NewVerification(brandResult, wrongResult), nil
}

// run executes job on the pool, or inline once the pool is closed.
func (ca *coreAnalyzer) run(wg *sync.WaitGroup, job func()) {
	wg.Add(1)
	wrapped := func() {
		defer wg.Done()
		job()
	}
	if !ca.workerPool.Submit(wrapped) {
		wrapped()
	}
}

func (ca *coreAnalyzer) Extract(img image.Image, opts ExtractOptions) (*Extraction, error) {
	return ExtractPalette(img, opts)
}

func (ca *coreAnalyzer) InspectContent(img image.Image) (*ContentReport, error) {
	return InspectContent(img)
}

func (ca *coreAnalyzer) Stats() PoolStats {
	return ca.workerPool.GetStats()
}

// Close shuts down the worker pool
func (ca *coreAnalyzer) Close() error {
	ca.workerPool.Close()
	return nil
}
