package testutil

// ScanLogJSON is a small log with three ranked devices, one unusable entry
// and a device without events.
//
// Ranking by event count: aa:01 (4), aa:02 (2), aa:03 (1), aa:04 (0).
const ScanLogJSON = `{
  "scanInfo": {"scanStarted": "2024-01-01T10:00:00Z", "scanEnded": "2024-01-01T10:10:00Z"},
  "devices": [
    {"id": "aa:03", "name": "Tag", "rssiHistory": [
      {"t": "2024-01-01T10:04:00Z", "r": -88}
    ]},
    {"id": "aa:01", "name": "Beacon One", "rssiHistory": [
      {"t": "2024-01-01T10:00:00Z", "r": -50},
      {"t": "2024-01-01T10:01:00Z", "r": -60},
      {"t": "2024-01-01T10:02:00Z", "r": -70},
      {"t": "2024-01-01T10:03:00Z", "r": "weak"}
    ], "uniqueAdvertisements": [{"localName": "Beacon One", "txPower": -12}]},
    {"name": "no id", "rssiHistory": [{"t": "2024-01-01T10:00:00Z", "r": -40}]},
    {"id": "aa:02", "rssiHistory": [
      {"t": "2024-01-01T10:00:30Z", "r": -75},
      {"t": "2024-01-01T10:05:00Z", "r": -79}
    ]},
    {"id": "aa:04", "name": "Silent", "rssiHistory": []}
  ]
}`
