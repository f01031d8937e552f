package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiorit/internal/models"
	"studiorit/internal/pdf"
	"studiorit/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	reports pdf.Generator
}

func NewTaskHandler(service services.TaskService, reports pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, reports: reports}
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type submitRequest struct {
	ApproverID string `json:"approverId"`
}

type approvalRequest struct {
	Status   string `json:"status" binding:"required"`
	Comments string `json:"comments"`
}

// @Summary   Create a task
// @Tags      Tasks
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      models.CreateTaskRequest  true  "Task"
// @Success   201   {object}  map[string]interface{}
// @Failure   400   {object}  map[string]string
// @Failure   403   {object}  map[string]string
// @Router    /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.service.CreateTask(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, "task", "create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": task})
}

// @Summary   List visible tasks
// @Tags      Tasks
// @Produce   json
// @Security  BearerAuth
// @Param     project     query  string  false  "Project id"
// @Param     status      query  string  false  "todo|in_progress|under_review|needs_revision|completed"
// @Param     priority    query  string  false  "low|medium|high|urgent"
// @Param     assignedTo  query  string  false  "Assignee id"
// @Param     createdBy   query  string  false  "Creator id"
// @Param     dueBefore   query  string  false  "RFC3339"
// @Param     dueAfter    query  string  false  "RFC3339"
// @Param     overdue     query  bool    false  "Only overdue tasks"
// @Success   200  {object}  map[string]interface{}
// @Router    /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	filter := models.TaskFilter{
		ProjectID:  queryString(c, "project"),
		AssignedTo: queryString(c, "assignedTo"),
		CreatedBy:  queryString(c, "createdBy"),
		Overdue:    queryBool(c, "overdue"),
	}
	if v := queryString(c, "status"); v != nil {
		st := models.TaskStatus(*v)
		if !st.Valid() {
			badRequest(c, "invalid status")
			return
		}
		filter.Status = &st
	}
	if v := queryString(c, "priority"); v != nil {
		p := models.TaskPriority(*v)
		if !p.Valid() {
			badRequest(c, "invalid priority")
			return
		}
		filter.Priority = &p
	}
	if filter.DueBefore, ok = queryTime(c, "dueBefore"); !ok {
		return
	}
	if filter.DueAfter, ok = queryTime(c, "dueAfter"); !ok {
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), a, filter)
	if err != nil {
		respondError(c, "task", "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(tasks), "tasks": tasks})
}

func (h *TaskHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	task, err := h.service.GetTask(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, "task", "get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var patch models.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}
	task, err := h.service.UpdateTask(c.Request.Context(), a, c.Param("id"), patch)
	if err != nil {
		respondError(c, "task", "update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully", "task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTask(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, "task", "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), a, c.Param("id"), req.Text)
	if err != nil {
		respondError(c, "task", "comment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment added successfully", "comment": comment})
}

// @Summary      Submit a task for approval
// @Description  Assignee only. approverId defaults to the project coordinator.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "Task id"
// @Param        body  body      submitRequest  false  "Approver"
// @Success      200   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string
// @Router       /api/tasks/{id}/submit [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req submitRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	task, err := h.service.SubmitForApproval(c.Request.Context(), a, c.Param("id"), req.ApproverID)
	if err != nil {
		respondError(c, "task", "submit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task submitted for approval", "task": task})
}

// @Summary   Approve or reject a pending submission
// @Tags      Tasks
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      string           true  "Task id"
// @Param     body  body      approvalRequest  true  "Decision"
// @Success   200   {object}  map[string]interface{}
// @Failure   403   {object}  map[string]string
// @Router    /api/tasks/{id}/approval [post]
func (h *TaskHandler) Approval(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req approvalRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.service.ProcessTaskApproval(c.Request.Context(), a, c.Param("id"), req.Status, req.Comments)
	if err != nil {
		respondError(c, "task", "approval", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task " + req.Status + " successfully", "task": task})
}

func (h *TaskHandler) AddRevision(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.RevisionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	rev, task, err := h.service.AddRevision(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, "task", "revision", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Revision added successfully", "revision": rev, "task": task})
}

// Report streams the task as a PDF document.
func (h *TaskHandler) Report(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	task, err := h.service.GetTask(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, "task", "report", err)
		return
	}
	body, err := h.reports.TaskReport(task)
	if err != nil {
		respondError(c, "task", "report", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="task_%s.pdf"`, task.ID))
	c.Data(http.StatusOK, "application/pdf", body)
}
