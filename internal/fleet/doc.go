// Package fleet drives a simulated robot fleet over the task queue, zone access
// and health monitor: one goroutine per robot pulls tasks, holds the task's zone
// while working and heartbeats, while a liveness goroutine scans for robots
// whose heartbeat went stale.
//
// Lock discipline: the queue, zone access and health monitor each own one lock
// and none of them is called while another's lock is held. A robot holds at
// most one zone at a time. Together these make the fleet deadlock-free.
package fleet
