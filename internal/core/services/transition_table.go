package services

import (
	"fmt"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
)

// TransitionOutcome is what the orchestrator does with a voucher after the gate.
type TransitionOutcome int

const (
	OutcomeNoop            TransitionOutcome = iota // Nothing to change
	OutcomeAlreadyPosted                            // Posted vouchers never move
	OutcomeRouteToApproval                          // Park in AWAITING_APPROVAL
	OutcomePost                                     // Post directly
	OutcomeApproveThenPost                          // Flip to APPROVED, then post
)

func (o TransitionOutcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeAlreadyPosted:
		return "already_posted"
	case OutcomeRouteToApproval:
		return "route_to_approval"
	case OutcomePost:
		return "post"
	case OutcomeApproveThenPost:
		return "approve_then_post"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// TransitionInput is the full set of facts a routing decision depends on.
type TransitionInput struct {
	Current          domain.VoucherStatus
	Commit           domain.CommitType
	CanPost          bool
	CanApprove       bool
	RequiresApproval bool
}

// decideTransition maps (status, commit, can_post, can_approve, requires_approval)
// to an outcome or a stable error. Approval routing is decided before the
// current status is looked at, so approve rights alone never post a voucher
// whose config requires approval.
func decideTransition(in TransitionInput) (TransitionOutcome, error) {
	if in.Current == domain.VoucherPosted {
		return OutcomeAlreadyPosted, nil
	}
	if !in.Commit.IsValid() {
		return OutcomeNoop, apperrors.NewValidationError(apperrors.CodeValidation,
			fmt.Sprintf("unknown commit type %q", in.Commit))
	}
	if in.Commit == domain.CommitSave {
		return OutcomeNoop, nil
	}

	switch in.Current {
	case domain.VoucherDraft, domain.VoucherAwaitingApproval, domain.VoucherApproved:
	case domain.VoucherRejected:
		if in.Commit == domain.CommitPost {
			return OutcomeNoop, apperrors.NewInvalidTransitionError("a rejected voucher must be resubmitted before posting")
		}
	default:
		return OutcomeNoop, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot %s a voucher in status %s", in.Commit, in.Current))
	}

	if in.Commit == domain.CommitSubmit || (in.RequiresApproval && !in.CanPost) {
		return OutcomeRouteToApproval, nil
	}

	switch in.Current {
	case domain.VoucherAwaitingApproval:
		if in.CanApprove || in.CanPost {
			return OutcomeApproveThenPost, nil
		}
		return OutcomeNoop, apperrors.NewApprovalRequiredError("voucher is awaiting approval")

	default:
		if !in.CanPost {
			return OutcomeNoop, apperrors.NewPostForbiddenError("actor is not allowed to post journals")
		}
		return OutcomePost, nil
	}
}
