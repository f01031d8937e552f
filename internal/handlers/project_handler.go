package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiorit/internal/models"
	"studiorit/internal/services"
)

type ProjectHandler struct {
	service services.ProjectService
}

func NewProjectHandler(service services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type teamMemberRequest struct {
	UserID string            `json:"userId" binding:"required"`
	Role   models.MemberRole `json:"role"`
}

type noteRequest struct {
	Content string `json:"content" binding:"required"`
}

// @Summary   Create a project (coordinator and above)
// @Tags      Projects
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      models.CreateProjectRequest  true  "Project"
// @Success   201   {object}  map[string]interface{}
// @Failure   400   {object}  map[string]string
// @Failure   403   {object}  map[string]string
// @Router    /api/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.service.CreateProject(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, "project", "create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Project created successfully", "project": project})
}

// @Summary   List visible projects
// @Tags      Projects
// @Produce   json
// @Security  BearerAuth
// @Param     status       query  string  false  "planning|in_progress|review|completed|archived"
// @Param     department   query  string  false  "Department"
// @Param     tag          query  string  false  "Tag"
// @Param     coordinator  query  string  false  "Coordinator id"
// @Param     startAfter   query  string  false  "RFC3339"
// @Param     endBefore    query  string  false  "RFC3339"
// @Param     search       query  string  false  "Matches title or description"
// @Success   200  {object}  map[string]interface{}
// @Router    /api/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	filter := models.ProjectFilter{
		Tag:         queryString(c, "tag"),
		Coordinator: queryString(c, "coordinator"),
		Search:      c.Query("search"),
	}
	if v := queryString(c, "status"); v != nil {
		st := models.ProjectStatus(*v)
		if !st.Valid() {
			badRequest(c, "invalid status")
			return
		}
		filter.Status = &st
	}
	if v := queryString(c, "department"); v != nil {
		d := models.Department(*v)
		if !d.Valid() {
			badRequest(c, "invalid department")
			return
		}
		filter.Department = &d
	}
	if filter.StartAfter, ok = queryTime(c, "startAfter"); !ok {
		return
	}
	if filter.EndBefore, ok = queryTime(c, "endBefore"); !ok {
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), a, filter)
	if err != nil {
		respondError(c, "project", "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(projects), "projects": projects})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	project, err := h.service.GetProject(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, "project", "get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var patch models.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}
	project, err := h.service.UpdateProject(c.Request.Context(), a, c.Param("id"), patch)
	if err != nil {
		respondError(c, "project", "update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project updated successfully", "project": project})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.service.DeleteProject(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, "project", "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) AddTeamMember(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req teamMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.service.AddTeamMember(c.Request.Context(), a, c.Param("id"), req.UserID, req.Role)
	if err != nil {
		respondError(c, "project", "team_add", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team member added successfully", "project": project})
}

func (h *ProjectHandler) RemoveTeamMember(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req teamMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.service.RemoveTeamMember(c.Request.Context(), a, c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, "project", "team_remove", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team member removed successfully", "project": project})
}

func (h *ProjectHandler) AddNote(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req noteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := h.service.AddProjectNote(c.Request.Context(), a, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, "project", "note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note added successfully", "note": note})
}

func (h *ProjectHandler) AddReference(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.ReferenceRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, err := h.service.AddProjectReference(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, "project", "reference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reference added successfully", "reference": ref})
}
