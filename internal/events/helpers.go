package events

import (
	"encoding/json"
	"fmt"
)

// SetTaskCompletedData sets the Data field with TaskCompletedData in a type-safe way.
func (e *DomainEvent) SetTaskCompletedData(data TaskCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert TaskCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetTaskCompletedData retrieves TaskCompletedData from the Data field.
func (e *DomainEvent) GetTaskCompletedData() (*TaskCompletedData, error) {
	var data TaskCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse TaskCompletedData: %w", err)
	}
	return &data, nil
}

// SetDayClosedData sets the Data field with DayClosedData in a type-safe way.
func (e *DomainEvent) SetDayClosedData(data DayClosedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert DayClosedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetDayClosedData retrieves DayClosedData from the Data field.
func (e *DomainEvent) GetDayClosedData() (*DayClosedData, error) {
	var data DayClosedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse DayClosedData: %w", err)
	}
	return &data, nil
}

// SetWeeklyPlanUpdatedData sets the Data field with WeeklyPlanUpdatedData in a type-safe way.
func (e *DomainEvent) SetWeeklyPlanUpdatedData(data WeeklyPlanUpdatedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert WeeklyPlanUpdatedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetWeeklyPlanUpdatedData retrieves WeeklyPlanUpdatedData from the Data field.
func (e *DomainEvent) GetWeeklyPlanUpdatedData() (*WeeklyPlanUpdatedData, error) {
	var data WeeklyPlanUpdatedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse WeeklyPlanUpdatedData: %w", err)
	}
	return &data, nil
}

// SetGoalStatusChangedData sets the Data field with GoalStatusChangedData in a type-safe way.
func (e *DomainEvent) SetGoalStatusChangedData(data GoalStatusChangedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert GoalStatusChangedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetGoalStatusChangedData retrieves GoalStatusChangedData from the Data field.
func (e *DomainEvent) GetGoalStatusChangedData() (*GoalStatusChangedData, error) {
	var data GoalStatusChangedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse GoalStatusChangedData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
