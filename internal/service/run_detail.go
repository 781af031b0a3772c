package service

import (
	"context"

	"testhub/internal/model"
)

type UserRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ProjectRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// CaseSummary is the part of a test case shown next to a run slot.
type CaseSummary struct {
	ID              uint           `json:"id"`
	Code            string         `json:"testCaseId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Priority        model.Priority `json:"priority"`
	Type            model.CaseType `json:"type"`
	Steps           string         `json:"steps"`
	ExpectedResults string         `json:"expectedResults"`
}

type HistoryDetail struct {
	model.HistoryEntry
	Executor *UserRef `json:"executor"`
}

// SlotDetail is a slot with its test case resolved. TestCase is nil when the
// case was deleted after being added to the run.
type SlotDetail struct {
	model.Slot
	TestCase *CaseSummary    `json:"testCase"`
	Executor *UserRef        `json:"executor"`
	History  []HistoryDetail `json:"history"`
}

type RunDetail struct {
	model.TestRun
	Project   *ProjectRef  `json:"project"`
	Creator   *UserRef     `json:"creator"`
	TestCases []SlotDetail `json:"testCases"`
}

func userRef(id *uint, names map[uint]string) *UserRef {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &UserRef{ID: *id, Name: name}
}

func historyDetails(history []model.HistoryEntry, names map[uint]string) []HistoryDetail {
	out := make([]HistoryDetail, len(history))
	for i, h := range history {
		out[i] = HistoryDetail{HistoryEntry: h, Executor: userRef(h.ExecutedBy, names)}
	}
	return out
}

// GetDetail loads a run with its project, creator, test cases and executors.
func (s *TestRunService) GetDetail(ctx context.Context, id uint) (*RunDetail, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	caseIDs := make([]uint, 0, len(run.TestCases))
	userIDs := []uint{run.CreatedBy}
	for _, slot := range run.TestCases {
		caseIDs = append(caseIDs, slot.TestCaseID)
		if slot.ExecutedBy != nil {
			userIDs = append(userIDs, *slot.ExecutedBy)
		}
		for _, h := range slot.History {
			if h.ExecutedBy != nil {
				userIDs = append(userIDs, *h.ExecutedBy)
			}
		}
	}

	cases, err := s.cases.Summaries(ctx, caseIDs)
	if err != nil {
		return nil, err
	}
	names, err := s.users.Names(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{
		TestRun:   *run,
		Creator:   userRef(&run.CreatedBy, names),
		TestCases: make([]SlotDetail, len(run.TestCases)),
	}
	if p, err := s.projects.Get(ctx, run.ProjectID); err == nil {
		detail.Project = &ProjectRef{ID: p.ID, Name: p.Name}
	}
	for i, slot := range run.TestCases {
		sd := SlotDetail{
			Slot:     slot,
			Executor: userRef(slot.ExecutedBy, names),
			History:  historyDetails(slot.History, names),
		}
		if tc, ok := cases[slot.TestCaseID]; ok {
			sd.TestCase = &CaseSummary{
				ID:              tc.ID,
				Code:            tc.Code,
				Title:           tc.Title,
				Description:     tc.Description,
				Priority:        tc.Priority,
				Type:            tc.Type,
				Steps:           tc.Steps,
				ExpectedResults: tc.ExpectedResults,
			}
		}
		detail.TestCases[i] = sd
	}
	return detail, nil
}
