package handlers

import (
	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
)

type Handlers struct {
	Dataset  *DatasetHandler
	Analysis *AnalysisHandler
}

func NewHandlers(sessionService session.Service, logger logger.Logger) *Handlers {
	return &Handlers{
		Dataset:  NewDatasetHandler(sessionService, logger),
		Analysis: NewAnalysisHandler(sessionService, logger),
	}
}
