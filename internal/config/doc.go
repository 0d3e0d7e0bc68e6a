// Package config provides Lua configuration parsing, generation, and
// validation for dotstrap.
//
// A dotstrap configuration is a single sandboxed Lua file declaring the
// packages to install, the automation inventory and playbook, the dotfiles
// checkout, and interactive-shell options. The sandbox removes os, io, and
// code-loading primitives so configs stay declarative; a read-only platform
// table is injected so configs can branch on the detected host.
//
// Example:
//
//	dotstrap = {
//	  meta = {
//	    name = "workstation",
//	  },
//	  packages = {
//	    "ansible",
//	    "starship",
//	    "zoxide",
//	    platform.when(platform.is_arch_family, "zellij"),
//	  },
//	  inventory = {
//	    path = "/etc/ansible/hosts",
//	    host = "localhost",
//	    connection = "local",
//	  },
//	  playbook = {
//	    path = "~/.ansible/setup.yml",
//	    ask_become_pass = true,
//	  },
//	}
package config
