package chi

import "github.com/kailas-cloud/artpair/internal/domain/match"

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeNoRecipes          = "no_recipes"
	CodeNoArtworks         = "no_artworks"
	CodeEmptyCorpus        = "empty_corpus"
	CodeImageDisabled      = "image_disabled"
	CodeRateLimited        = "rate_limited"
	CodeServiceUnavailable = "image_service_unavailable"
	CodeImageSynthesis     = "image_synthesis_failed"
	CodeInternalError      = "internal_error"
)

// Client-facing messages.
const (
	msgEnterDescription = "Please enter a food description"
	msgNoRecipe         = "No matching recipe found"
	msgNoArtwork        = "No matching artwork found"
)

// inputRequest is the body of both POST endpoints.
type inputRequest struct {
	Input string `json:"input" validate:"required,max=2000"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type recipeDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type artworkDTO struct {
	Title    string `json:"Title"`
	Artist   string `json:"Artist"`
	Style    string `json:"Style"`
	Category string `json:"Category"`
	ImageURL string `json:"Image URL"`
}

type recipeMatchDTO struct {
	Match      recipeDTO `json:"match"`
	Similarity float64   `json:"similarity"`
}

type artworkMatchDTO struct {
	Match      artworkDTO `json:"match"`
	Similarity float64    `json:"similarity"`
}

// PairingResponse is the body of POST /generate-pairing.
type PairingResponse struct {
	Success    bool              `json:"success"`
	Recipe     recipeMatchDTO    `json:"recipe"`
	ArtMatches []artworkMatchDTO `json:"art_matches"`
}

// ImageResponse is the body of POST /generate-ai-art.
type ImageResponse struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	Prompt    string `json:"prompt"`
	ImageData string `json:"image_data"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func pairingToDTO(res match.PairingResult) PairingResponse {
	resp := PairingResponse{
		Success: true,
		Recipe: recipeMatchDTO{
			Match: recipeDTO{
				Name:        res.Recipe.Recipe.Name,
				Description: res.Recipe.Recipe.Description,
			},
			Similarity: res.Recipe.Score,
		},
		ArtMatches: make([]artworkMatchDTO, len(res.Artworks)),
	}
	for i, a := range res.Artworks {
		resp.ArtMatches[i] = artworkMatchDTO{
			Match: artworkDTO{
				Title:    a.Artwork.Title,
				Artist:   a.Artwork.Artist,
				Style:    a.Artwork.Style,
				Category: a.Artwork.Category,
				ImageURL: a.Artwork.ImageURL,
			},
			Similarity: a.Score,
		}
	}
	return resp
}
