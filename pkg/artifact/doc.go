// Package artifact defines the model for Ansible automation artifacts
// (playbooks, roles, task files, handler files, variable files) and the
// classifier that derives an artifact's kind from its location relative
// to the standard Ansible directory conventions.
package artifact
