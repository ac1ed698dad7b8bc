// Package gcloud launches and owns the external Cloud SDK processes:
// the long-running `gcloud app logs tail` stream a session consumes,
// plus the one-shot version and auth helpers.
package gcloud
