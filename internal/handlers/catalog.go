package handlers

import (
	"net/http"

	"signlearn-service/internal/models"
	"signlearn-service/internal/services"

	"github.com/gin-gonic/gin"
)

type SignsHandler struct {
	Responder
	signs *services.SignService
}

func NewSignsHandler(signs *services.SignService, r Responder) *SignsHandler {
	return &SignsHandler{Responder: r, signs: signs}
}

func signFilter(c *gin.Context) models.SignFilter {
	return models.SignFilter{Difficulty: c.Query("difficulty"), Category: c.Query("category")}
}

func (h *SignsHandler) List(c *gin.Context) {
	res, err := h.signs.List(c.Request.Context(), signFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fallback(c, gin.H{
		"success": true,
		"signs":   res.Signs,
		"count":   len(res.Signs),
	}, res.Degraded))
}

func (h *SignsHandler) Categories(c *gin.Context) {
	categories, err := h.signs.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
}

func (h *SignsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "sign")
	if !ok {
		return
	}
	sign, err := h.signs.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sign": sign})
}

func (h *SignsHandler) RandomQuiz(c *gin.Context) {
	question, err := h.signs.RandomQuiz(c.Request.Context(), signFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "quiz": question})
}

func (h *SignsHandler) SequentialQuiz(c *gin.Context) {
	questions, err := h.signs.SequentialQuiz(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"category": c.Param("category"),
		"quizzes":  questions,
		"count":    len(questions),
	})
}

func (h *SignsHandler) CheckAnswer(c *gin.Context) {
	id, ok := parseID(c, "sign")
	if !ok {
		return
	}
	var req models.CheckAnswerRequest
	if !h.bind(c, &req, false) {
		return
	}

	res, err := h.signs.Check(c.Request.Context(), optionalActor(c), id, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"isCorrect":     res.IsCorrect,
		"correctAnswer": res.CorrectAnswer,
		"coinsAwarded":  res.CoinsAwarded,
		"persisted":     res.Persisted,
	})
}

func (h *SignsHandler) Create(c *gin.Context) {
	var req models.SignInput
	if !h.bind(c, &req, false) {
		return
	}
	sign, err := h.signs.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "sign": sign})
}

func (h *SignsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "sign")
	if !ok {
		return
	}
	var req models.SignInput
	if !h.bind(c, &req, false) {
		return
	}
	sign, err := h.signs.Update(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sign": sign})
}

func (h *SignsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "sign")
	if !ok {
		return
	}
	if err := h.signs.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "sign deleted"})
}

type SimulationsHandler struct {
	Responder
	simulations *services.SimulationService
}

func NewSimulationsHandler(simulations *services.SimulationService, r Responder) *SimulationsHandler {
	return &SimulationsHandler{Responder: r, simulations: simulations}
}

func (h *SimulationsHandler) List(c *gin.Context) {
	challenges, err := h.simulations.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "simulations": challenges, "count": len(challenges)})
}

func (h *SimulationsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "simulation")
	if !ok {
		return
	}
	challenge, err := h.simulations.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "simulation": challenge})
}

func (h *SimulationsHandler) Create(c *gin.Context) {
	var req models.SimulationInput
	if !h.bind(c, &req, false) {
		return
	}
	challenge, err := h.simulations.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "simulation": challenge})
}

func (h *SimulationsHandler) Check(c *gin.Context) {
	id, ok := parseID(c, "simulation")
	if !ok {
		return
	}
	var req models.CheckSceneRequest
	if !h.bind(c, &req, false) {
		return
	}

	res, err := h.simulations.Check(c.Request.Context(), optionalActor(c), id, req.SceneNumber, req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"isCorrect":     res.IsCorrect,
		"correctAnswer": res.CorrectAnswer,
		"coinsAwarded":  res.CoinsAwarded,
		"sceneNumber":   res.SceneNumber,
		"hints":         res.Hints,
		"isLastScene":   res.IsLastScene,
		"persisted":     res.Persisted,
	})
}
