package rpc

import (
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

// ToChatResponse converts an assistant response to its wire form.
func ToChatResponse(resp *assistant.Response) *advisor.ChatResponse {
	out := &advisor.ChatResponse{
		Message:    resp.Message,
		Phones:     toPhones(resp.Phones),
		Intent:     string(resp.Intent),
		Confidence: resp.Confidence,
		SafetyCheck: advisor.SafetyCheck{
			Passed: resp.Safety.Passed,
		},
		Degraded: resp.Degraded,
	}
	for _, f := range resp.Safety.Flags {
		out.SafetyCheck.Flags = append(out.SafetyCheck.Flags, string(f))
	}

	if c := resp.Comparison; c != nil {
		out.Comparison = &advisor.Comparison{
			Phones:   toPhones(c.Phones),
			Analysis: c.Analysis,
			Winner:   c.WinnerID,
		}
	}
	if r := resp.Recommendation; r != nil {
		out.Recommendation = &advisor.Recommendation{
			Primary:      ToPhone(r.Primary),
			Alternatives: toPhones(r.Alternatives),
			Reasoning:    r.Reasoning,
			Scores:       r.Scores,
		}
	}
	return out
}

// ToPhone converts a catalog item to its wire form.
func ToPhone(it catalog.Item) advisor.Phone {
	return advisor.Phone{
		ID:    it.ID,
		Name:  it.Name,
		Brand: it.Brand,
		Model: it.Model,
		Price: advisor.Price{
			Current:  it.Price.Current,
			Original: it.Price.Original,
			Currency: it.Price.Currency,
		},
		Availability: string(it.Availability),
		Category:     string(it.Category),
		Rating: advisor.Rating{
			Overall:     it.Rating.Overall,
			Camera:      it.Rating.Camera,
			Performance: it.Rating.Performance,
			Battery:     it.Rating.Battery,
			Display:     it.Rating.Display,
			Design:      it.Rating.Design,
		},
		Highlights:  it.Highlights,
		Pros:        it.Pros,
		Cons:        it.Cons,
		ReleaseDate: it.ReleaseDate,
	}
}

func toPhones(items []catalog.Item) []advisor.Phone {
	if len(items) == 0 {
		return nil
	}
	out := make([]advisor.Phone, len(items))
	for i, it := range items {
		out[i] = ToPhone(it)
	}
	return out
}
