package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound      = errors.New("policy not found")
	ErrInvalidStatus = errors.New("invalid policy status")
)

const (
	defaultListLimit   = 50
	defaultSearchLimit = 30
)

// Repository 管理政策跟踪相关的四张表，与会议记录共用同一个 sqlite 连接。
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

type Option func(*Repository)

func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now; stored timestamps are always UTC.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLocation sets the zone calendar days are computed in for ByDate, ByDateRange and ByMonth.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// Open wraps an existing database handle and migrates the policy tables.
func Open(ctx context.Context, conn *sql.DB, opts ...Option) (*Repository, error) {
	r := &Repository{logger: zap.NewNop(), now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: conn}), &gorm.Config{
		Logger:  gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc: func() time.Time { return r.now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open policy repository: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&Policy{}, &Content{}, &Performance{}, &Media{}); err != nil {
		return nil, fmt.Errorf("failed to migrate policy tables: %w", err)
	}
	r.db = db
	return r, nil
}

func (r *Repository) CreatePolicy(ctx context.Context, title, category, audience, description string) (*Policy, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("policy title is required")
	}
	now := r.now().UTC()
	p := &Policy{
		Title:          title,
		Category:       strings.TrimSpace(category),
		TargetAudience: strings.TrimSpace(audience),
		Description:    description,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}
	r.logger.Info("policy created", zap.Int64("id", p.ID), zap.String("category", p.Category))
	return p, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res := r.db.WithContext(ctx).Model(&Policy{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": r.now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to update policy status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("policy %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Policy, error) {
	var p Policy
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("policy %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return &p, nil
}

// List returns the newest policies first.
func (r *Repository) List(ctx context.Context, limit int) ([]Policy, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return r.find(ctx, r.db.WithContext(ctx).Limit(limit))
}

// Search matches keyword against title and description; an empty category matches all.
func (r *Repository) Search(ctx context.Context, keyword, category string, limit int) ([]Policy, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	kw := "%" + escapeLike(keyword) + "%"
	q := r.db.WithContext(ctx).
		Where(`(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`, kw, kw)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return r.find(ctx, q.Limit(limit))
}

// ByDate returns the policies created on one calendar day (YYYY-MM-DD).
func (r *Repository) ByDate(ctx context.Context, date string) ([]Policy, error) {
	day, err := time.ParseInLocation("2006-01-02", date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return r.between(ctx, day, day.AddDate(0, 0, 1))
}

// ByDateRange is inclusive on both ends.
func (r *Repository) ByDateRange(ctx context.Context, from, to string) ([]Policy, error) {
	start, err := time.ParseInLocation("2006-01-02", from, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", from, err)
	}
	end, err := time.ParseInLocation("2006-01-02", to, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", to, err)
	}
	return r.between(ctx, start, end.AddDate(0, 0, 1))
}

func (r *Repository) ByMonth(ctx context.Context, year, month int) ([]Policy, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, r.loc)
	return r.between(ctx, start, start.AddDate(0, 1, 0))
}

func (r *Repository) between(ctx context.Context, start, end time.Time) ([]Policy, error) {
	return r.find(ctx, r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()))
}

func (r *Repository) find(_ context.Context, q *gorm.DB) ([]Policy, error) {
	out := []Policy{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	return out, nil
}

// SaveContent stores one artifact; data and metadata are encoded as JSON.
func (r *Repository) SaveContent(ctx context.Context, policyID int64, contentType string, data any, metadata map[string]any) (*Content, error) {
	if err := r.exists(ctx, policyID); err != nil {
		return nil, err
	}
	payload, err := toJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := toJSON(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	c := &Content{
		PolicyID:    policyID,
		ContentType: contentType,
		ContentData: payload,
		Metadata:    meta,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to save content: %w", err)
	}
	return c, nil
}

func (r *Repository) Contents(ctx context.Context, policyID int64) ([]Content, error) {
	out := []Content{}
	err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).
		Order("created_at DESC").Order("id DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveMedia(ctx context.Context, policyID int64, mediaType string, data []byte, url, prompt string, params map[string]any) (*Media, error) {
	if err := r.exists(ctx, policyID); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	enc, err := toJSON(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation params: %w", err)
	}
	m := &Media{
		PolicyID:         policyID,
		MediaType:        mediaType,
		MediaURL:         url,
		MediaData:        data,
		Prompt:           prompt,
		GenerationParams: enc,
		CreatedAt:        r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to save media: %w", err)
	}
	return m, nil
}

// Media lists generated media of a policy; an empty mediaType matches all.
func (r *Repository) Media(ctx context.Context, policyID int64, mediaType string) ([]Media, error) {
	q := r.db.WithContext(ctx).Where("policy_id = ?", policyID)
	if mediaType != "" {
		q = q.Where("media_type = ?", mediaType)
	}
	out := []Media{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	return out, nil
}

// UpdatePerformanceMetrics replaces the metrics of a policy, creating its row on first use.
func (r *Repository) UpdatePerformanceMetrics(ctx context.Context, policyID int64, metrics map[string]any) (*Performance, error) {
	if err := r.exists(ctx, policyID); err != nil {
		return nil, err
	}
	enc, err := toJSON(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metrics: %w", err)
	}

	var perf Performance
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("policy_id = ?", policyID).First(&perf).Error
		now := r.now().UTC()
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			perf = Performance{PolicyID: policyID, MetricsData: enc, UpdatedAt: now}
			return tx.Create(&perf).Error
		case err != nil:
			return err
		}
		perf.MetricsData = enc
		perf.UpdatedAt = now
		return tx.Model(&perf).Updates(map[string]any{"metrics_data": enc, "updated_at": now}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update metrics: %w", err)
	}
	r.logger.Info("policy metrics updated", zap.Int64("policy", policyID))
	return &perf, nil
}

// Performance returns the metrics row of a policy, or ErrNotFound before the first update.
func (r *Repository) Performance(ctx context.Context, policyID int64) (*Performance, error) {
	var perf Performance
	err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).First(&perf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("policy %d metrics: %w", policyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	return &perf, nil
}

func (r *Repository) exists(ctx context.Context, id int64) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Policy{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check policy: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("policy %d: %w", id, ErrNotFound)
	}
	return nil
}

func toJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
