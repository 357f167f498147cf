package entity

import (
	"errors"
	"fmt"
)

// Stage этап конвейера, на котором случилась ошибка
type Stage string

const (
	StageLoad       Stage = "load"
	StageAnalysis   Stage = "analysis"
	StageGeneration Stage = "generation"
	StageWrite      Stage = "write"
)

var (
	ErrLoad       = errors.New("load error")
	ErrAnalysis   = errors.New("analysis error")
	ErrGeneration = errors.New("generation error")
	ErrWrite      = errors.New("write error")
)

var stageErrors = map[Stage]error{
	StageLoad:       ErrLoad,
	StageAnalysis:   ErrAnalysis,
	StageGeneration: ErrGeneration,
	StageWrite:      ErrWrite,
}

var stageMessages = map[Stage]string{
	StageLoad:       "could not read image",
	StageAnalysis:   "could not analyze image",
	StageGeneration: "could not generate HTML",
	StageWrite:      "could not write output",
}

// ConversionError единственный тип ошибки, который конвейер отдаёт наружу.
type ConversionError struct {
	Stage Stage
	Err   error
}

// NewConversionError оборачивает причину в ошибку этапа.
func NewConversionError(stage Stage, err error) *ConversionError {
	return &ConversionError{Stage: stage, Err: err}
}

func (e *ConversionError) Error() string {
	msg, ok := stageMessages[e.Stage]
	if !ok {
		msg = "conversion failed"
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap позволяет errors.Is находить и сентинел этапа, и причину.
func (e *ConversionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := stageErrors[e.Stage]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
