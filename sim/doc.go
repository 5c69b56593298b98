// Package sim provides the round-based DDoS mitigation simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - user.go, bucket.go: the data model and per-bucket suspicion update
//   - manager.go: one round (detect, update suspicion, utility, redistribute)
//     and the shared repartition and elimination machinery
//   - simulator.go: population setup and the round loop across managers
//
// # Managers
//
// Manager is a single concrete type tagged by a ManagerSpec; the
// variant-specific step is a Policy:
//   - SievePolicy (redistribute_sieve.go): sieve-v0-s*, sieve-v1-s*
//   - BoundedPolicy: the v0 sieve pass under a per-run budget
//   - KPOPolicy: random reshuffle of attacked buckets
//   - MiadPolicy: multiplicative-increase / additive-decrease quarantine
//   - ProtagPolicy: protect trusted users, eliminate over a suspicion threshold
//
// Sub-packages:
//   - sim/trace: per-round snapshot records for visualization
//   - sim/sweep: multi-trial experiment orchestration
package sim
