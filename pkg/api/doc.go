// Package api serves the junction registry over HTTP.
//
// Routes
//
//   - GET  /traffic_light/{junction_id}: current status and time_left, 404 when unknown
//   - POST /update_traffic_light: insert or replace a junction, 400 on invalid data
//   - GET  /traffic_lights: every junction keyed by identifier
//   - GET  /traffic_lights/stream: accepted updates as Server-Sent Events
//   - GET  /ws/traffic_lights: accepted updates over a WebSocket
//   - GET  /healthz: liveness
//
// Every route answers cross-origin requests from any allowed origin; the
// default allows all of them.
//
// Updates are validated by truthiness: an empty junction_id or status, or a
// time_left of zero, is rejected the same way as a body that is not JSON.
package api
