package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/templating"
)

// TemplatePreviewRequest is the body of POST /api/preview.
type TemplatePreviewRequest struct {
	Template string         `json:"template"`
	Context  map[string]any `json:"context"`
	// FilenameTemplate, when set, is rendered against Context["title"] the way note filenames are.
	FilenameTemplate string `json:"filename_template"`
}

// TemplatePreviewResponse carries the rendered template.
type TemplatePreviewResponse struct {
	Rendered string `json:"rendered"`
	Filename string `json:"filename,omitempty"`
}

// PreviewTemplate handles POST /api/preview so template edits can be tried
// against sample values before they are saved.
func PreviewTemplate(c *gin.Context) {
	var req TemplatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := templating.Context(req.Context)
	response := TemplatePreviewResponse{
		Rendered: templating.Render(req.Template, ctx),
	}
	if req.FilenameTemplate != "" {
		title, _ := req.Context["title"].(string)
		response.Filename = exporters.NoteFilename(req.FilenameTemplate, title) + ".md"
	}

	c.JSON(http.StatusOK, response)
}
