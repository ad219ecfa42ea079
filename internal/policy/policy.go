package policy

import (
	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/textutil"
)

// Reason names the predicate that rejected a series.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonAdult        Reason = "adult"
	ReasonBlockedGenre Reason = "blocked_genre"
	ReasonBlockedTag   Reason = "blocked_tag"
	ReasonMediaType    Reason = "media_type"
	ReasonFormat       Reason = "format"
	ReasonCountry      Reason = "country"
)

// Reasons lists every rejection reason in evaluation order.
func Reasons() []Reason {
	return []Reason{ReasonAdult, ReasonBlockedGenre, ReasonBlockedTag, ReasonMediaType, ReasonFormat, ReasonCountry}
}

// Decision is the outcome of Admit. Detail carries the offending value.
type Decision struct {
	Allowed bool
	Reason  Reason
	Detail  string
}

func allow() Decision { return Decision{Allowed: true} }

func reject(reason Reason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

type predicate struct {
	reason Reason
	check  func(p *Policy, s catalog.Series) (bool, string)
}

var predicates = []predicate{
	{ReasonAdult, (*Policy).checkAdult},
	{ReasonBlockedGenre, (*Policy).checkGenres},
	{ReasonBlockedTag, (*Policy).checkTags},
	{ReasonMediaType, (*Policy).checkMediaType},
	{ReasonFormat, (*Policy).checkFormat},
	{ReasonCountry, (*Policy).checkCountry},
}

// Policy holds the folded block lists and allow-lists. It is immutable after
// construction and safe for concurrent use.
type Policy struct {
	blockedGenres    map[string]struct{}
	blockedTags      map[string]struct{}
	mediaType        string
	allowedFormats   map[string]struct{}
	allowedCountries map[string]struct{}
}

// New builds a Policy from configuration.
func New(cfg config.Policy) *Policy {
	return &Policy{
		blockedGenres:    textutil.FoldSet(cfg.BlockedGenres),
		blockedTags:      textutil.FoldSet(cfg.BlockedTags),
		mediaType:        textutil.Fold(cfg.MediaType),
		allowedFormats:   textutil.FoldSet(cfg.AllowedFormats),
		allowedCountries: textutil.FoldSet(cfg.AllowedCountries),
	}
}

// Admit evaluates every predicate in order; the first failure rejects.
func (p *Policy) Admit(series catalog.Series) Decision {
	for _, pred := range predicates {
		if ok, detail := pred.check(p, series); !ok {
			return reject(pred.reason, detail)
		}
	}
	return allow()
}

func (p *Policy) checkAdult(s catalog.Series) (bool, string) {
	if s.IsAdult {
		return false, "isAdult"
	}
	return true, ""
}

func (p *Policy) checkGenres(s catalog.Series) (bool, string) {
	for _, genre := range s.Genres {
		if _, blocked := p.blockedGenres[textutil.Fold(genre)]; blocked {
			return false, genre
		}
	}
	return true, ""
}

func (p *Policy) checkTags(s catalog.Series) (bool, string) {
	for _, tag := range s.Tags {
		if _, blocked := p.blockedTags[textutil.Fold(tag.Name)]; blocked {
			return false, tag.Name
		}
	}
	return true, ""
}

func (p *Policy) checkMediaType(s catalog.Series) (bool, string) {
	if textutil.Fold(s.Type) != p.mediaType {
		return false, s.Type
	}
	return true, ""
}

func (p *Policy) checkFormat(s catalog.Series) (bool, string) {
	if _, ok := p.allowedFormats[textutil.Fold(s.Format)]; !ok {
		return false, s.Format
	}
	return true, ""
}

func (p *Policy) checkCountry(s catalog.Series) (bool, string) {
	if s.CountryOfOrigin == "" {
		return true, ""
	}
	if _, ok := p.allowedCountries[textutil.Fold(s.CountryOfOrigin)]; !ok {
		return false, s.CountryOfOrigin
	}
	return true, ""
}
