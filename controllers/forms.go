package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"report-ledger-api/middleware"
	"report-ledger-api/models"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type SubmitRequest struct {
	ModuleID    int             `json:"module_id"`
	Period      string          `json:"period"`
	UserID      int             `json:"user_id"`
	Data        json.RawMessage `json:"data"`
	Remarks     *string         `json:"remarks"`
	Suggestions *string         `json:"suggestions"`
}

// SubmitTarget reads the gate target from a submit body. The body is cached
// on the context so the handler can bind it again.
func SubmitTarget(c *gin.Context) (middleware.GateTarget, error) {
	var req SubmitRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		return middleware.GateTarget{}, errors.New("request body must be a JSON object")
	}
	return middleware.GateTarget{UserID: req.UserID, ModuleID: req.ModuleID, Period: req.Period}, nil
}

// PathTarget reads the gate target from :moduleId and :period, with the
// caller taken from the user_id query or form field.
func PathTarget(c *gin.Context) (middleware.GateTarget, error) {
	moduleID, err := strconv.Atoi(c.Param("moduleId"))
	if err != nil {
		return middleware.GateTarget{}, errors.New("moduleId must be an integer")
	}

	target := middleware.GateTarget{ModuleID: moduleID, Period: c.Param("period")}
	raw := c.Query("user_id")
	if raw == "" {
		raw = c.PostForm("user_id")
	}
	if raw != "" {
		if target.UserID, err = strconv.Atoi(raw); err != nil {
			return middleware.GateTarget{}, errors.New("user_id must be an integer")
		}
	}
	return target, nil
}

// FormsController serves the submission ledger.
type FormsController struct {
	ledger *services.LedgerService
}

func NewFormsController(ledger *services.LedgerService) *FormsController {
	return &FormsController{ledger: ledger}
}

// Submit creates or updates the current submission of a module for a period
func (fc *FormsController) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondError(c, badRequest("request body must be a JSON object"))
		return
	}
	if userID, ok := middleware.ActingUserID(c); ok {
		req.UserID = userID
	}

	result, err := fc.ledger.Submit(c.Request.Context(), services.SubmitInput{
		ModuleID:    req.ModuleID,
		Period:      req.Period,
		UserID:      req.UserID,
		Data:        req.Data,
		Remarks:     req.Remarks,
		Suggestions: req.Suggestions,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Form submitted successfully"
	if result.Action == models.ActionUpdate {
		message = "Form updated successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    result,
	})
}

func (fc *FormsController) GetSubmission(c *gin.Context) {
	moduleID, err := pathInt(c, "moduleId")
	if err != nil {
		respondError(c, err)
		return
	}

	submission, err := fc.ledger.Get(c.Request.Context(), moduleID, c.Param("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    submission,
	})
}

func (fc *FormsController) DeleteSubmission(c *gin.Context) {
	moduleID, err := pathInt(c, "moduleId")
	if err != nil {
		respondError(c, err)
		return
	}
	userID, _ := middleware.ActingUserID(c)

	if err := fc.ledger.Delete(c.Request.Context(), moduleID, c.Param("period"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission deleted successfully",
	})
}

// Status lists every visible module with its submission state for a period
func (fc *FormsController) Status(c *gin.Context) {
	period := c.Param("period")
	userID, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	modules, err := fc.ledger.StatusForPeriod(c.Request.Context(), period, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	submitted := 0
	for _, module := range modules {
		if module.Submitted {
			submitted++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"period":          period,
			"modules":         modules,
			"total_count":     len(modules),
			"submitted_count": submitted,
		},
	})
}

func (fc *FormsController) History(c *gin.Context) {
	moduleID, err := pathInt(c, "moduleId")
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := fc.ledger.History(c.Request.Context(), moduleID, c.Param("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"total":   len(entries),
	})
}
