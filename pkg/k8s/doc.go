// Package k8s provides cluster-API access for the harness: REST config and
// clientset construction, kubeconfig bookkeeping (context rename, server URL
// rewrite), label-selected resource watching, and pod readiness polling.
package k8s
