// Package labeling derives the canonical special-flag state of a quote request
// from its boolean fields and attached label IDs, and classifies requests into
// the four dashboard buckets.
//
// Everything here is pure: callers load labels and quote requests, and decide
// whether to persist the reconciled result.
package labeling

import (
	"strings"

	"github.com/loxconnect/connect-api/internal/domain"
)

// Flag is a single special flag.
type Flag uint8

const (
	Urgent Flag = 1 << iota
	Problems
	Waiting
	Planned
	Snoozed
)

var flagKinds = [...]struct {
	flag Flag
	kind domain.LabelKind
	name string
}{
	{Urgent, domain.LabelKindUrgent, "urgent"},
	{Problems, domain.LabelKindProblems, "problems"},
	{Waiting, domain.LabelKindWaiting, "waiting"},
	{Planned, domain.LabelKindPlanned, "planned"},
	{Snoozed, domain.LabelKindSnoozed, "snoozed"},
}

// KindOf returns the system label kind that represents the flag.
func KindOf(flag Flag) domain.LabelKind {
	for _, fk := range flagKinds {
		if fk.flag == flag {
			return fk.kind
		}
	}
	return domain.LabelKindNone
}

// FlagOf returns the flag represented by a system label kind.
func FlagOf(kind domain.LabelKind) (Flag, bool) {
	for _, fk := range flagKinds {
		if fk.kind == kind {
			return fk.flag, true
		}
	}
	return 0, false
}

// Flags is a set of special flags. It is the single source of truth for a
// request's special state; the stored booleans and label IDs are projections.
type Flags uint8

func (f Flags) Has(flag Flag) bool {
	return f&Flags(flag) != 0
}

func (f Flags) With(flag Flag) Flags {
	return f | Flags(flag)
}

func (f Flags) Without(flag Flag) Flags {
	return f &^ Flags(flag)
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fk := range flagKinds {
		if f.Has(fk.flag) {
			parts = append(parts, fk.name)
		}
	}
	return strings.Join(parts, "|")
}

// legacyNames maps normalized label names used before labels carried a kind.
var legacyNames = map[string]domain.LabelKind{
	"urgent":             domain.LabelKindUrgent,
	"problems":           domain.LabelKindProblems,
	"waiting for answer": domain.LabelKindWaiting,
	"planned":            domain.LabelKindPlanned,
	"snooze":             domain.LabelKindSnoozed,
}

// NormalizeName lowercases and trims a label name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LegacyKind reports the system kind a label name denotes, matched case-insensitively.
func LegacyKind(name string) (domain.LabelKind, bool) {
	kind, ok := legacyNames[NormalizeName(name)]
	return kind, ok
}

// SpecialLabels maps each system kind to the ID of the label representing it.
// A missing kind yields the empty ID, which never matches an attached label.
type SpecialLabels map[domain.LabelKind]string

// Resolve builds the special label index. A label's typed kind takes precedence
// over a legacy name match; within each pass the first label in input order wins.
func Resolve(labels []domain.Label) SpecialLabels {
	special := make(SpecialLabels, len(flagKinds))
	for _, l := range labels {
		if l.Kind == domain.LabelKindNone {
			continue
		}
		if _, ok := FlagOf(l.Kind); !ok {
			continue
		}
		if _, taken := special[l.Kind]; !taken {
			special[l.Kind] = l.ID.String()
		}
	}
	for _, l := range labels {
		if l.Kind != domain.LabelKindNone {
			continue
		}
		kind, ok := LegacyKind(l.Name)
		if !ok {
			continue
		}
		if _, taken := special[kind]; !taken {
			special[kind] = l.ID.String()
		}
	}
	return special
}

// ID returns the label ID for a kind, or "" when no such label exists.
func (s SpecialLabels) ID(kind domain.LabelKind) string {
	return s[kind]
}

// KindOfLabel reports which system kind a label ID represents.
func (s SpecialLabels) KindOfLabel(id string) (domain.LabelKind, bool) {
	if id == "" {
		return domain.LabelKindNone, false
	}
	for kind, labelID := range s {
		if labelID == id {
			return kind, true
		}
	}
	return domain.LabelKindNone, false
}

// Effective ORs each stored boolean with membership of the matching special label.
// Snoozed additionally holds whenever the status is Snoozed.
func Effective(qr *domain.QuoteRequest, special SpecialLabels) Flags {
	var f Flags
	if qr.Urgent || qr.HasLabel(special.ID(domain.LabelKindUrgent)) {
		f = f.With(Urgent)
	}
	if qr.Problems || qr.HasLabel(special.ID(domain.LabelKindProblems)) {
		f = f.With(Problems)
	}
	if qr.WaitingForAnswer || qr.HasLabel(special.ID(domain.LabelKindWaiting)) {
		f = f.With(Waiting)
	}
	if qr.Planned || qr.HasLabel(special.ID(domain.LabelKindPlanned)) {
		f = f.With(Planned)
	}
	if qr.Status == domain.QuoteStatusSnoozed || qr.HasLabel(special.ID(domain.LabelKindSnoozed)) {
		f = f.With(Snoozed)
	}
	return f
}

// Bucket is a dashboard column. Every request belongs to exactly one.
type Bucket string

const (
	BucketUrgentOrProblems Bucket = "urgentOrProblems"
	BucketWaiting          Bucket = "waiting"
	BucketStandard         Bucket = "standard"
	BucketSnoozed          Bucket = "snoozed"
)

// Buckets lists the columns in display order.
var Buckets = []Bucket{BucketUrgentOrProblems, BucketWaiting, BucketStandard, BucketSnoozed}

// BucketOf assigns a bucket by priority: snoozed, then urgent or problems,
// then waiting, otherwise standard.
func BucketOf(f Flags) Bucket {
	switch {
	case f.Has(Snoozed):
		return BucketSnoozed
	case f.Has(Urgent), f.Has(Problems):
		return BucketUrgentOrProblems
	case f.Has(Waiting):
		return BucketWaiting
	default:
		return BucketStandard
	}
}

// Classify returns the bucket of a request.
func Classify(qr *domain.QuoteRequest, special SpecialLabels) Bucket {
	return BucketOf(Effective(qr, special))
}

// Result is the healed stored representation of a request's flags.
type Result struct {
	Flags            Flags
	Urgent           bool
	Problems         bool
	WaitingForAnswer bool
	Planned          bool
	Labels           []string
	// Changed is true when the healed representation differs from the stored one.
	Changed bool
}

// Reconcile projects the effective flags back onto both representations.
// It only adds: a true boolean is never cleared, an attached label ID is never
// removed, and the status is never touched. Missing special label IDs are
// appended in canonical kind order.
func Reconcile(qr *domain.QuoteRequest, special SpecialLabels) Result {
	flags := Effective(qr, special)

	labels := make([]string, len(qr.Labels), len(qr.Labels)+len(flagKinds))
	copy(labels, qr.Labels)
	for _, fk := range flagKinds {
		id := special.ID(fk.kind)
		if id == "" || !flags.Has(fk.flag) || contains(labels, id) {
			continue
		}
		labels = append(labels, id)
	}

	res := Result{
		Flags:            flags,
		Urgent:           flags.Has(Urgent),
		Problems:         flags.Has(Problems),
		WaitingForAnswer: flags.Has(Waiting),
		Planned:          flags.Has(Planned),
		Labels:           labels,
	}
	res.Changed = res.Urgent != qr.Urgent ||
		res.Problems != qr.Problems ||
		res.WaitingForAnswer != qr.WaitingForAnswer ||
		res.Planned != qr.Planned ||
		len(res.Labels) != len(qr.Labels)
	return res
}

// Apply writes the result onto the request.
func (r Result) Apply(qr *domain.QuoteRequest) {
	qr.Urgent = r.Urgent
	qr.Problems = r.Problems
	qr.WaitingForAnswer = r.WaitingForAnswer
	qr.Planned = r.Planned
	qr.Labels = r.Labels
}

// Set sets or clears a flag in both representations at once. Unlike Reconcile
// it may clear, so it is used for explicit user edits only. Clearing Snoozed
// removes the snooze label but leaves a Snoozed status alone.
func Set(qr *domain.QuoteRequest, special SpecialLabels, flag Flag, on bool) {
	switch flag {
	case Urgent:
		qr.Urgent = on
	case Problems:
		qr.Problems = on
	case Waiting:
		qr.WaitingForAnswer = on
	case Planned:
		qr.Planned = on
	}

	id := special.ID(KindOf(flag))
	if id == "" {
		return
	}
	if on {
		if !qr.HasLabel(id) {
			qr.Labels = append(qr.Labels, id)
		}
		return
	}
	kept := make([]string, 0, len(qr.Labels))
	for _, l := range qr.Labels {
		if l != id {
			kept = append(kept, l)
		}
	}
	qr.Labels = kept
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
