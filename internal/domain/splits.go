package domain

// SplitReceiverType describes why a funder splits to a fundee
type SplitReceiverType string

const (
	SplitReceiverProjectMaintainer  SplitReceiverType = "ProjectMaintainer"
	SplitReceiverProjectDependency  SplitReceiverType = "ProjectDependency"
	SplitReceiverDripListDependency SplitReceiverType = "DripListDependency"
)

// TotalSplitsWeight is the weight that represents 100% of an account's splits
const TotalSplitsWeight = 1_000_000

// SplitReceiver is one weighted edge of an account's on-chain splits configuration
type SplitReceiver struct {
	AccountID AccountID `json:"accountId"`
	Weight    int64     `json:"weight"`
}
