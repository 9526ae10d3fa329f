// Package upload stores profile assets in object storage and hands back
// serve URLs. Object keys are random; the uploader never trusts
// caller-supplied file names beyond their extension.
package upload
