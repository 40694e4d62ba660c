package sources

// DefaultSnapshotURL is the referral graph endpoint of a local stack.
const DefaultSnapshotURL = "http://localhost:8080/api/referrals/graph"
