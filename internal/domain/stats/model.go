package stats

import "sos-expat/backend/internal/domain/payments"

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	Users     int64         `json:"users"`
	Providers ProviderStats `json:"providers"`
	KYC       KYCStats      `json:"kyc"`
	Reviews   ReviewStats   `json:"reviews"`
	Payments  PaymentStats  `json:"payments"`
}

type ProviderStats struct {
	Total        int64            `json:"total"`
	ByType       map[string]int64 `json:"byType"`
	Online       int64            `json:"online"`
	Banned       int64            `json:"banned"`
	ApprovalRate string           `json:"approvalRate"`
}

type KYCStats struct {
	Pending  int64 `json:"pending"`
	Verified int64 `json:"verified"`
	Rejected int64 `json:"rejected"`
}

type ReviewStats struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
}

type PaymentStats struct {
	ThisMonth int64             `json:"thisMonth"`
	Summary   *payments.Summary `json:"summary,omitempty"`
}
