package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/processsim"
	"gopherai-interview/internal/transport/http/response"
)

// SimulatorHandler exposes the process models. Each run returns the result,
// the surface profile and the advice shown next to it.
type SimulatorHandler struct{}

type simulation struct {
	Kind    string             `json:"kind"`
	Params  any                `json:"params"`
	Result  any                `json:"result"`
	Profile processsim.Surface `json:"profile"`
	Advice  processsim.Advice  `json:"advice"`
}

func NewSimulatorHandler() *SimulatorHandler {
	return &SimulatorHandler{}
}

func (h *SimulatorHandler) CVD(c *gin.Context) {
	var p processsim.CVDParams
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	r, err := processsim.SimulateCVD(p)
	if err != nil {
		simulationError(c, err)
		return
	}
	response.OK(c, simulation{
		Kind:    processsim.KindCVD,
		Params:  p,
		Result:  r,
		Profile: processsim.CVDProfile(r),
		Advice:  processsim.RecommendCVD(r),
	})
}

func (h *SimulatorHandler) RIE(c *gin.Context) {
	var p processsim.RIEParams
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	r, err := processsim.SimulateRIE(p)
	if err != nil {
		simulationError(c, err)
		return
	}
	response.OK(c, simulation{
		Kind:    processsim.KindRIE,
		Params:  p,
		Result:  r,
		Profile: processsim.RIEProfile(r),
		Advice:  processsim.RecommendRIE(r),
	})
}

func (h *SimulatorHandler) Sputtering(c *gin.Context) {
	var p processsim.SputteringParams
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	r, err := processsim.SimulateSputtering(p)
	if err != nil {
		simulationError(c, err)
		return
	}
	response.OK(c, simulation{
		Kind:    processsim.KindSputtering,
		Params:  p,
		Result:  r,
		Profile: processsim.SputteringProfile(r),
		Advice:  processsim.RecommendSputtering(r),
	})
}

func simulationError(c *gin.Context, err error) {
	if errors.Is(err, processsim.ErrParameterOutOfRange) {
		response.Error(c, http.StatusBadRequest, response.CodeParameterOutOfRange, err.Error())
		return
	}
	response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "simulation failed")
}
