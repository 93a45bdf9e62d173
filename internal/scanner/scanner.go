// Package scanner 提供并发扫描调度能力。
// 该层负责目录遍历、文件读取、任务分发和结果归并，构造计数交给 analysis 包，
// 汇总与排名交给 summary 包。
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"codestat/internal/analysis"
	"codestat/internal/languages"
	"codestat/internal/model"
	"codestat/internal/observability"
	"codestat/internal/summary"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnsupportedExtension 表示单文件模式下给出的文件无法识别语言。
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// ContentReader 读取文件内容。默认实现是 os.ReadFile，测试可以替换。
type ContentReader func(path string) ([]byte, error)

// Options 是扫描服务的可配置项。
type Options struct {
	// Workers 为并发 worker 数量，<= 0 时使用 CPU 核数。
	Workers int
	// Exclude 是 glob 排除规则，同时匹配相对路径与文件/目录名。
	Exclude []string
	// Languages 限定参与统计的语言，为空表示全部。
	Languages []languages.Tag
	// Top 为大文件排名数量，<= 0 表示不生成排名。
	Top int
	// CacheSize 为记录缓存容量，<= 0 表示不缓存。
	CacheSize int
	Reader    ContentReader
	Logger    *slog.Logger
}

// Service 是扫描服务对象，可以被重复调用（watch 模式）。
type Service struct {
	registry *languages.Registry
	workers  int
	excludes []glob.Glob
	filter   map[languages.Tag]bool
	top      int
	cache    *lru.Cache[string, cachedRecord]
	read     ContentReader
	logger   *slog.Logger
}

// cachedRecord 是缓存条目，文件大小或修改时间变化即失效。
type cachedRecord struct {
	size    int64
	modTime time.Time
	record  model.FileRecord
}

// scanTask 表示一个待分析文件任务。
type scanTask struct {
	absolutePath string
	displayPath  string
	tag          languages.Tag
	size         int64
	modTime      time.Time
}

// workerResult 表示 worker 的执行产物。
// 读取失败时 record 仍然存在（全零计数），scanError 只作提示。
type workerResult struct {
	record    model.FileRecord
	scanError *model.ScanError
}

// NewService 创建扫描服务。
func NewService(registry *languages.Registry, options Options) (*Service, error) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	excludes, err := CompileGlobs(options.Exclude)
	if err != nil {
		return nil, err
	}

	filter := make(map[languages.Tag]bool, len(options.Languages))
	for _, tag := range options.Languages {
		filter[tag] = true
	}

	service := &Service{
		registry: registry,
		workers:  workers,
		excludes: excludes,
		filter:   filter,
		top:      options.Top,
		read:     options.Reader,
		logger:   options.Logger,
	}
	if service.read == nil {
		service.read = os.ReadFile
	}
	if service.logger == nil {
		service.logger = slog.Default()
	}
	if options.CacheSize > 0 {
		cache, err := lru.New[string, cachedRecord](options.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create record cache: %w", err)
		}
		service.cache = cache
	}
	return service, nil
}

// CompileGlobs 编译排除规则，使用 / 作为分隔符，因此 ** 可以跨目录匹配。
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// ScanPath 扫描目录或单文件。
// 扫描过程默认并发执行；单个文件读取失败不会中断扫描。
func (s *Service) ScanPath(ctx context.Context, targetPath string) (model.ScanResult, error) {
	var result model.ScanResult

	trimmedPath := strings.TrimSpace(targetPath)
	if trimmedPath == "" {
		return result, errors.New("scan path is empty")
	}

	absoluteTarget, err := filepath.Abs(trimmedPath)
	if err != nil {
		return result, fmt.Errorf("resolve absolute path: %w", err)
	}

	info, err := os.Stat(absoluteTarget)
	if err != nil {
		return result, fmt.Errorf("stat path: %w", err)
	}

	ctx, span := observability.Tracer().Start(ctx, "scanner.ScanPath",
		trace.WithAttributes(attribute.String("codestat.path", absoluteTarget)))
	defer span.End()

	started := time.Now()
	result.RunID = uuid.NewString()
	result.ScannedPath = absoluteTarget
	result.StartedAt = started.UTC()

	tasks := make(chan scanTask, s.workers*4)
	results := make(chan workerResult, s.workers*4)
	walkErrChan := make(chan error, 1)

	var workerGroup sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			s.runWorker(ctx, tasks, results)
		}()
	}

	go func() {
		defer close(tasks)
		if info.IsDir() {
			walkErrChan <- s.enqueueDirectoryTasks(ctx, absoluteTarget, tasks, results)
			return
		}
		walkErrChan <- s.enqueueSingleFileTask(absoluteTarget, info, tasks)
	}()

	go func() {
		workerGroup.Wait()
		close(results)
	}()

	result.Files = make([]model.FileRecord, 0)
	result.Errors = make([]model.ScanError, 0)

	for item := range results {
		if item.scanError != nil {
			result.Errors = append(result.Errors, *item.scanError)
		}
		if item.record.Filename != "" {
			result.Files = append(result.Files, item.record)
		}
	}

	if walkErr := <-walkErrChan; walkErr != nil {
		return result, walkErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	s.buildSummaries(ctx, &result)

	elapsed := time.Since(started)
	result.ElapsedSeconds = elapsed.Seconds()
	observability.ScanDuration.Observe(elapsed.Seconds())
	observability.LastScanFiles.Set(float64(len(result.Files)))
	span.SetAttributes(attribute.Int("codestat.files", len(result.Files)))

	return result, nil
}

// Invalidate 从缓存中移除指定文件（绝对路径），watch 模式收到变更事件时调用。
// 路径是目录时，目录下的全部缓存记录一并移除。
func (s *Service) Invalidate(paths ...string) {
	if s.cache == nil || len(paths) == 0 {
		return
	}

	prefixes := make([]string, 0, len(paths))
	for _, path := range paths {
		s.cache.Remove(path)
		prefixes = append(prefixes, strings.TrimSuffix(path, string(filepath.Separator))+string(filepath.Separator))
	}
	for _, key := range s.cache.Keys() {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				s.cache.Remove(key)
				break
			}
		}
	}
}

// Accepts 判断相对路径对应的文件是否会被扫描。
func (s *Service) Accepts(relativePath string) bool {
	tag, ok := s.registry.TagForFile(relativePath)
	if !ok || !s.languageAllowed(tag) {
		return false
	}
	return !s.Excluded(filepath.ToSlash(relativePath))
}

// languageAllowed 检查语言过滤条件。
func (s *Service) languageAllowed(tag languages.Tag) bool {
	return len(s.filter) == 0 || s.filter[tag]
}

// Excluded 检查相对路径或其最后一段是否命中排除规则。
func (s *Service) Excluded(relativePath string) bool {
	base := filepath.Base(relativePath)
	for _, g := range s.excludes {
		if g.Match(relativePath) || g.Match(base) {
			return true
		}
	}
	return false
}

// enqueueDirectoryTasks 遍历目录并把可识别语言文件推入任务队列。
// 无法访问的子目录或文件会记录为 ScanError 并跳过。
func (s *Service) enqueueDirectoryTasks(ctx context.Context, root string, tasks chan<- scanTask, results chan<- workerResult) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		relativePath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relativePath = path
		}
		displayPath := filepath.ToSlash(relativePath)

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			s.logger.Warn("skip unreadable path", "path", displayPath, "error", walkErr)
			results <- workerResult{scanError: &model.ScanError{Path: displayPath, Error: walkErr.Error()}}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if path != root && s.Excluded(displayPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.Accepts(relativePath) {
			return nil
		}

		tag, _ := s.registry.TagForFile(path)
		task := scanTask{
			absolutePath: path,
			displayPath:  displayPath,
			tag:          tag,
		}
		if info, err := entry.Info(); err == nil {
			task.size = info.Size()
			task.modTime = info.ModTime()
		}

		select {
		case tasks <- task:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// enqueueSingleFileTask 在用户给定单文件路径时创建任务。
func (s *Service) enqueueSingleFileTask(filePath string, info fs.FileInfo, tasks chan<- scanTask) error {
	tag, ok := s.registry.TagForFile(filePath)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(filePath))
	}
	if !s.languageAllowed(tag) {
		return nil
	}

	tasks <- scanTask{
		absolutePath: filePath,
		displayPath:  filepath.Base(filePath),
		tag:          tag,
		size:         info.Size(),
		modTime:      info.ModTime(),
	}
	return nil
}

// runWorker 执行文件读取和构造计数。
func (s *Service) runWorker(ctx context.Context, tasks <-chan scanTask, results chan<- workerResult) {
	for task := range tasks {
		if ctx.Err() != nil {
			// 继续消费队列，让生产者能够退出。
			continue
		}
		results <- s.analyzeTask(task)
	}
}

// analyzeTask 分析单个文件。
// 读取失败按空内容处理，得到全零记录，同时返回一条 ScanError。
func (s *Service) analyzeTask(task scanTask) workerResult {
	if cached, ok := s.lookupCache(task); ok {
		observability.RecordCacheHitsTotal.Inc()
		return workerResult{record: cached}
	}

	var result workerResult
	content, err := s.read(task.absolutePath)
	if err != nil {
		s.logger.Warn("read source file failed, counting as empty", "path", task.displayPath, "error", err)
		observability.UnreadableFilesTotal.Inc()
		content = nil
		result.scanError = &model.ScanError{Path: task.displayPath, Error: err.Error()}
	}

	result.record = analysis.Analyze(task.displayPath, string(content), task.tag)

	observability.FilesAnalyzedTotal.WithLabelValues(task.tag.String()).Inc()
	observability.LinesAnalyzedTotal.WithLabelValues(task.tag.String()).Add(float64(result.record.LineCount()))

	if err == nil && s.cache != nil {
		s.cache.Add(task.absolutePath, cachedRecord{
			size:    task.size,
			modTime: task.modTime,
			record:  result.record,
		})
	}
	return result
}

// lookupCache 查找未过期的缓存记录。
func (s *Service) lookupCache(task scanTask) (model.FileRecord, bool) {
	if s.cache == nil || task.modTime.IsZero() {
		return model.FileRecord{}, false
	}
	entry, ok := s.cache.Get(task.absolutePath)
	if !ok || entry.size != task.size || !entry.modTime.Equal(task.modTime) {
		return model.FileRecord{}, false
	}
	record := entry.record
	record.Filename = task.displayPath
	return record, true
}

// buildSummaries 排序文件明细，计算语言级汇总、占比与大文件排名。
func (s *Service) buildSummaries(ctx context.Context, result *model.ScanResult) {
	_, span := observability.Tracer().Start(ctx, "summary.Summarize")
	defer span.End()

	sort.Slice(result.Files, func(i int, j int) bool {
		return result.Files[i].Filename < result.Files[j].Filename
	})

	sort.Slice(result.Errors, func(i int, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})

	result.Languages, result.Statistics = summary.Summarize(result.Files)
	for i := range result.Languages {
		if result.Languages[i].Language.IsConcrete() {
			result.Languages[i].Extensions = s.registry.ExtensionsForLanguage(result.Languages[i].Language)
		}
	}

	if s.top > 0 {
		result.Largest = summary.TopN(result.Files, s.top)
	}
}
