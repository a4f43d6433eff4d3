// Package schemacompat lets the client run against backends whose database
// schema predates newer columns, tables or procedures.
//
// Classification is purely lexical: a failed response's message is matched
// against the identifiers each feature area introduced (see the Missing*
// predicates). Do wraps a primary request and, when its failure matches,
// applies one of three fallbacks: a reduced legacy request (Legacy), a
// safe default value (Default), or a MigrationError (RequireMigration) that
// tells the caller the write needs a newer schema.
package schemacompat
