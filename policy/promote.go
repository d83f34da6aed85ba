package policy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"policy_workbench/generator"
	"policy_workbench/store"
)

// PromoteRecord turns a stored meeting record into a tracked policy: the request fields
// fill the policy row and every top-level result section becomes one content row.
func (r *Repository) PromoteRecord(ctx context.Context, rec *store.Record) (*Policy, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	payload := generator.Node(rec.Payload)
	title := payload.String("policy_title")
	if title == "" {
		title = rec.Title
	}
	category := payload.String("preset")
	audience := payload.String("target")
	result := generator.Result(rec.Result)

	var p *Policy
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &Repository{db: tx, logger: r.logger, now: r.now, loc: r.loc}
		var err error
		p, err = scoped.CreatePolicy(ctx, title, category, audience, payload.String("question"))
		if err != nil {
			return err
		}
		meta := map[string]any{
			"record_id":     rec.ID,
			"meeting_title": rec.Title,
			"meeting_date":  rec.Date,
			"meeting_time":  rec.Time,
		}
		for _, section := range result.Sections() {
			if _, err := scoped.SaveContent(ctx, p.ID, section, result[section], meta); err != nil {
				return fmt.Errorf("section %s: %w", section, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to promote meeting %d: %w", rec.ID, err)
	}
	r.logger.Info("meeting promoted", zap.Int64("record", rec.ID), zap.Int64("policy", p.ID))
	return p, nil
}
