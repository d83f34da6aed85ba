package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Depth 控制输出的详细程度。
type Depth string

const (
	DepthNormal   Depth = "normal"
	DepthDeep     Depth = "deep"
	DepthVeryDeep Depth = "very_deep"
)

const (
	ViewExternal = "external"
	ViewInternal = "internal"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Keywords accepts either a comma-delimited string or a JSON list.
type Keywords []string

func (k *Keywords) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*k = SplitKeywords(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("keywords must be a string or a list of strings: %w", err)
	}
	*k = cleanKeywords(list)
	return nil
}

// SplitKeywords 按逗号拆分并去掉空白项。
func SplitKeywords(s string) Keywords {
	return cleanKeywords(strings.Split(s, ","))
}

func cleanKeywords(in []string) Keywords {
	out := Keywords{}
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func (k Keywords) String() string {
	return strings.Join(k, ", ")
}

// GenerationRequest is the structured input to one generation attempt.
type GenerationRequest struct {
	MeetingTitle string   `json:"meeting_title" validate:"required"`
	MeetingDate  string   `json:"meeting_date" validate:"omitempty,datetime=2006-01-02"`
	MeetingTime  string   `json:"meeting_time" validate:"omitempty,datetime=15:04"`
	Preset       string   `json:"preset"`
	Package      string   `json:"package"`
	Target       string   `json:"target"`
	Tone         string   `json:"tone"`
	VideoLength  string   `json:"video_len" validate:"omitempty,oneof=10s 20s 30s"`
	Depth        Depth    `json:"depth" validate:"omitempty,oneof=normal deep very_deep"`
	PolicyTitle  string   `json:"policy_title" validate:"required"`
	Question     string   `json:"question" validate:"required"`
	Keywords     Keywords `json:"keywords"`
	Constraints  string   `json:"constraints"`
	DecisiveMode bool     `json:"decisive_mode"`
	ViewMode     string   `json:"view_mode,omitempty"`
}

// Normalize 去除首尾空白并补全默认值。
func (r *GenerationRequest) Normalize(now time.Time) {
	r.MeetingTitle = strings.TrimSpace(r.MeetingTitle)
	r.MeetingDate = strings.TrimSpace(r.MeetingDate)
	r.MeetingTime = strings.TrimSpace(r.MeetingTime)
	r.Preset = strings.TrimSpace(r.Preset)
	r.Package = strings.TrimSpace(r.Package)
	r.Target = strings.TrimSpace(r.Target)
	r.Tone = strings.TrimSpace(r.Tone)
	r.VideoLength = strings.TrimSpace(r.VideoLength)
	r.PolicyTitle = strings.TrimSpace(r.PolicyTitle)
	r.Question = strings.TrimSpace(r.Question)
	r.Constraints = strings.TrimSpace(r.Constraints)
	r.Keywords = cleanKeywords(r.Keywords)

	if r.MeetingDate == "" {
		r.MeetingDate = now.Format(DateLayout)
	}
	if r.MeetingTime == "" {
		r.MeetingTime = "00:00"
	}
	if r.VideoLength == "" {
		r.VideoLength = "20s"
	}
	if r.Depth == "" {
		r.Depth = DepthDeep
	}
	if r.ViewMode == "" {
		r.ViewMode = ViewExternal
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every empty required field and every out-of-range tag as one InputError.
func (r GenerationRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ie := &InputError{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			ie.Missing = append(ie.Missing, fe.Field())
		} else {
			ie.Invalid = append(ie.Invalid, fe.Field())
		}
	}
	return ie
}
