package main

// template is a named, documented starter pipeline shipped with the CLI.
type template struct {
	Name        string
	Description string
	Body        string
}

var templateCatalog = []template{
	{
		Name:        "innosetup",
		Description: "Build a Windows installer with Inno Setup",
		Body: `version: 1
name: Inno Setup Build
description: Compiles a .iss script into a Windows installer.
variables:
  ISCC_PATH: C:\Program Files (x86)\Inno Setup 6\ISCC.exe
  SCRIPT: installer\setup.iss
stages:
  - name: package
    steps:
      - name: Compile installer
        description: Runs the Inno Setup compiler against the .iss script.
        command: ${ISCC_PATH}
        arguments: ${SCRIPT}
        timeout_seconds: 600
        artifacts:
          - installer\Output\*.exe
`,
	},
	{
		Name:        "dotnet",
		Description: "Restore, build, and test a .NET solution",
		Body: `version: 1
name: .NET Build
variables:
  CONFIGURATION: Release
stages:
  - name: build
    steps:
      - name: Restore
        command: dotnet
        arguments: restore
        timeout_seconds: 300
      - name: Build
        command: dotnet
        arguments: build --configuration ${CONFIGURATION} --no-restore
        timeout_seconds: 600
      - name: Test
        command: dotnet
        arguments: test --configuration ${CONFIGURATION} --no-build
        timeout_seconds: 600
        allow_failure: false
`,
	},
	{
		Name:        "security",
		Description: "Run a dependency/vulnerability scan and fail on findings",
		Body: `version: 1
name: Security Scan
stages:
  - name: scan
    steps:
      - name: Dependency audit
        command: govulncheck
        arguments: ./...
        timeout_seconds: 300
        breakpoint: on_failure
`,
	},
	{
		Name:        "twincat",
		Description: "Build a TwinCAT PLC project from the command line",
		Body: `version: 1
name: TwinCAT Build
variables:
  TWINCAT_PROJECT: plc\Project.sln
stages:
  - name: build
    steps:
      - name: Build PLC project
        command: TcXaeShell.exe
        arguments: /build ${TWINCAT_PROJECT}
        timeout_seconds: 900
        artifacts:
          - plc\_Boot\*.boot
`,
	},
	{
		Name:        "custom",
		Description: "A minimal, blank starting point",
		Body: `version: 1
name: Unnamed Pipeline
stages:
  - name: default
    steps:
      - name: Hello
        command: echo
        arguments: hello from PipeForge
`,
	},
}

func findTemplate(name string) (template, bool) {
	for _, t := range templateCatalog {
		if t.Name == name {
			return t, true
		}
	}
	return template{}, false
}
