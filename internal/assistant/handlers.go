package assistant

import (
	"context"
	"errors"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/parser"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
)

// maxCompared caps how many phones one comparison covers.
const maxCompared = 3

func (a *Assistant) handleSearch(q parser.ParsedQuery) (*Response, error) {
	criteria := a.criteria(q)
	criteria.MinFeatureRating = a.config.FeatureRatingFloor

	phones := a.engine.Search(criteria, a.config.SearchLimit)
	if len(phones) > 0 {
		return &Response{
			Message:    searchMessage(q, phones),
			Phones:     phones,
			Confidence: q.Confidence,
			outcome:    monitoring.OutcomeAnswered,
		}, nil
	}

	resp := &Response{Confidence: q.Confidence, outcome: monitoring.OutcomeNoResults}
	switch a.config.NoResultsPolicy {
	case PolicyAlternatives:
		resp.Phones = limitItems(a.engine.Fallback(q.Budget), a.config.SearchLimit)
		resp.Message = noResultsAlternatives(q, resp.Phones)
	default:
		resp.Message = noResultsGuidance(q, a.catalog.Brands())
	}
	return resp, nil
}

func (a *Assistant) handleCompare(q parser.ParsedQuery, utterance string) (*Response, error) {
	phones, missed := a.resolvePhones(q, utterance, 2)
	if len(phones) < 2 {
		var popular []catalog.Item
		if a.config.NoResultsPolicy == PolicyAlternatives {
			popular = a.popularPhones()
		}
		return &Response{
			Message:    compareMissMessage(phones, a.sanitizeAll(missed), a.popularPhones()),
			Phones:     popular,
			Confidence: q.Confidence * lookupMissPenalty,
			outcome:    monitoring.OutcomeLookupMiss,
		}, nil
	}

	phones = limitItems(phones, maxCompared)
	winner := bestBy(phones, func(it catalog.Item) float64 { return it.Rating.Overall })
	analysis := comparisonAnalysis(phones, winner)

	return &Response{
		Message: analysis,
		Phones:  phones,
		Comparison: &Comparison{
			Phones:   phones,
			Analysis: analysis,
			WinnerID: winner.ID,
		},
		Confidence: q.Confidence,
		outcome:    monitoring.OutcomeAnswered,
	}, nil
}

func (a *Assistant) handleRecommend(q parser.ParsedQuery) (*Response, error) {
	res, err := a.engine.Recommend(a.criteria(q))
	if errors.Is(err, recommend.ErrNoCandidates) {
		resp := &Response{
			Message:    noCandidatesMessage(q),
			Confidence: q.Confidence,
			outcome:    monitoring.OutcomeNoResults,
		}
		if a.config.NoResultsPolicy == PolicyAlternatives {
			resp.Phones = a.catalog.TopRated(3)
		}
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	phones := make([]catalog.Item, 0, 1+len(res.Alternatives))
	phones = append(phones, res.Primary)
	phones = append(phones, res.Alternatives...)

	return &Response{
		Message:        recommendMessage(res),
		Phones:         phones,
		Recommendation: res,
		Confidence:     q.Confidence,
		outcome:        monitoring.OutcomeAnswered,
	}, nil
}

func (a *Assistant) handleDetails(q parser.ParsedQuery, utterance string) (*Response, error) {
	phones, missed := a.resolvePhones(q, utterance, 1)
	if len(phones) == 0 {
		var fragment string
		if len(missed) > 0 {
			fragment = a.sanitize(missed[0])
		}
		return &Response{
			Message:    detailsMissMessage(fragment),
			Confidence: q.Confidence * lookupMissPenalty,
			outcome:    monitoring.OutcomeLookupMiss,
		}, nil
	}

	it := phones[0]
	return &Response{
		Message:    detailsCard(it),
		Phones:     []catalog.Item{it},
		Confidence: q.Confidence,
		outcome:    monitoring.OutcomeAnswered,
	}, nil
}

func (a *Assistant) handleExplain(ctx context.Context, q parser.ParsedQuery) (*Response, error) {
	body, ok := glossary[q.Topic]
	if !ok {
		return &Response{
			Message:    unknownTopicMessage(),
			Confidence: q.Confidence * lookupMissPenalty,
			outcome:    monitoring.OutcomeLookupMiss,
		}, nil
	}

	if a.generator != nil {
		text, err := a.generator.Generate(ctx, explainPrompt(q.Topic))
		if err != nil {
			a.logger.WithContext(ctx).Warn().
				Err(err).
				Str("topic", q.Topic).
				Msg("Explanation generation failed, using glossary")
		} else {
			body = text
		}
	}

	return &Response{
		Message:    explainMessage(q.Topic, body),
		Confidence: q.Confidence,
		outcome:    monitoring.OutcomeAnswered,
	}, nil
}

func (a *Assistant) handleGeneral(ctx context.Context, q parser.ParsedQuery, utterance string) (*Response, error) {
	resp := &Response{Confidence: q.Confidence, outcome: monitoring.OutcomeAnswered}

	switch {
	case greetingPattern.MatchString(utterance):
		resp.Message = msgGreeting
		return resp, nil
	case thanksPattern.MatchString(utterance):
		resp.Message = msgThanks
		return resp, nil
	case helpPattern.MatchString(utterance):
		resp.Message = msgHelp
		return resp, nil
	}

	if a.generator != nil && a.filter.IsPhoneRelated(utterance) {
		prompt := generalPrompt(a.sanitize(utterance), a.sanitizeAll(q.History), a.catalogNames())
		text, err := a.generator.Generate(ctx, prompt)
		if err == nil {
			resp.Message = text
			resp.Phones = a.catalog.MentionedIn(text)
			return resp, nil
		}
		a.logger.WithContext(ctx).Warn().Err(err).Msg("General answer generation failed, using help text")
	}

	resp.Message = msgHelp
	return resp, nil
}

func (a *Assistant) catalogNames() []string {
	items := a.catalog.Items()
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func (a *Assistant) sanitizeAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = a.sanitize(s)
	}
	return out
}

func limitItems(items []catalog.Item, n int) []catalog.Item {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
