package platform

// DetectFrom exposes detect for tests.
var DetectFrom = detect
