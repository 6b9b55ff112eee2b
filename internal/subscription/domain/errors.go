package domain

import "errors"

var (
	ErrPlanNotFound   = errors.New("plan_not_found")
	ErrInvalidPlan    = errors.New("invalid_plan")
	ErrInactivePlan   = errors.New("inactive_plan")
	ErrInvalidPlanID  = errors.New("invalid_plan_id")
	ErrInvalidRequest = errors.New("invalid_request")
)
