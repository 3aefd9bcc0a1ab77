package services

import (
	"testing"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecideTransition(t *testing.T) {
	tests := []struct {
		name     string
		in       TransitionInput
		want     TransitionOutcome
		wantCode string
	}{
		{"posted is terminal", TransitionInput{Current: domain.VoucherPosted, Commit: domain.CommitPost}, OutcomeAlreadyPosted, ""},
		{"posted ignores save", TransitionInput{Current: domain.VoucherPosted, Commit: domain.CommitSave}, OutcomeAlreadyPosted, ""},
		{"save on draft", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitSave, CanPost: true}, OutcomeNoop, ""},
		{"submit draft", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitSubmit, CanPost: true}, OutcomeRouteToApproval, ""},
		{"post draft", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitPost, CanPost: true}, OutcomePost, ""},
		{"post draft with approval but can post", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitPost, CanPost: true, RequiresApproval: true}, OutcomePost, ""},
		{"post draft needing approval", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitPost, RequiresApproval: true}, OutcomeRouteToApproval, ""},
		{"post draft without permission", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitPost, CanApprove: true}, OutcomeNoop, apperrors.CodePostForbidden},
		{"submit awaiting", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitSubmit}, OutcomeRouteToApproval, ""},
		{"approver posts awaiting", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost, CanApprove: true}, OutcomeApproveThenPost, ""},
		{"poster posts awaiting", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost, CanPost: true}, OutcomeApproveThenPost, ""},
		{"awaiting without rights", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost}, OutcomeNoop, apperrors.CodeApprovalRequired},
		{"approver cannot post awaiting when approval required", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost, CanApprove: true, RequiresApproval: true}, OutcomeRouteToApproval, ""},
		{"poster posts awaiting when approval required", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost, CanPost: true, RequiresApproval: true}, OutcomeApproveThenPost, ""},
		{"awaiting without rights when approval required", TransitionInput{Current: domain.VoucherAwaitingApproval, Commit: domain.CommitPost, RequiresApproval: true}, OutcomeRouteToApproval, ""},
		{"submit approved", TransitionInput{Current: domain.VoucherApproved, Commit: domain.CommitSubmit}, OutcomeRouteToApproval, ""},
		{"post approved needing approval", TransitionInput{Current: domain.VoucherApproved, Commit: domain.CommitPost, CanApprove: true, RequiresApproval: true}, OutcomeRouteToApproval, ""},
		{"post approved with approval and post rights", TransitionInput{Current: domain.VoucherApproved, Commit: domain.CommitPost, CanPost: true, RequiresApproval: true}, OutcomePost, ""},
		{"post approved", TransitionInput{Current: domain.VoucherApproved, Commit: domain.CommitPost, CanPost: true}, OutcomePost, ""},
		{"post approved without permission", TransitionInput{Current: domain.VoucherApproved, Commit: domain.CommitPost, CanApprove: true}, OutcomeNoop, apperrors.CodePostForbidden},
		{"resubmit rejected", TransitionInput{Current: domain.VoucherRejected, Commit: domain.CommitSubmit}, OutcomeRouteToApproval, ""},
		{"post rejected", TransitionInput{Current: domain.VoucherRejected, Commit: domain.CommitPost, CanPost: true}, OutcomeNoop, apperrors.CodeInvalidTransition},
		{"post rejected needing approval", TransitionInput{Current: domain.VoucherRejected, Commit: domain.CommitPost, RequiresApproval: true}, OutcomeNoop, apperrors.CodeInvalidTransition},
		{"unknown status submit", TransitionInput{Current: domain.VoucherStatus("ARCHIVED"), Commit: domain.CommitSubmit}, OutcomeNoop, apperrors.CodeInvalidTransition},
		{"unknown status", TransitionInput{Current: domain.VoucherStatus("ARCHIVED"), Commit: domain.CommitPost, CanPost: true}, OutcomeNoop, apperrors.CodeInvalidTransition},
		{"unknown commit", TransitionInput{Current: domain.VoucherDraft, Commit: domain.CommitType("publish")}, OutcomeNoop, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decideTransition(tt.in)
			if tt.wantCode != "" {
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}
