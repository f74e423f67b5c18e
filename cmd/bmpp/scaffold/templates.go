// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package scaffold

const basicTemplate = `// {{.Name}}: one request answered by one response.
{{.Name}} <Protocol>("a basic request and response") {
    roles
        A <Agent>("first participant"),
        B <Agent>("second participant")

    parameters
        message <String>("a simple message"),
        response <Bool>("acknowledgment response")

    A -> B: send <Action>("send a message")[out message]
    B -> A: ack <Action>("acknowledge receipt")[in message, out response]
}
`

const multiPartyTemplate = `// {{.Name}}: an initiator delegates work through a coordinator.
{{.Name}} <Protocol>("a multi-party delegation") {
    roles
        Initiator <Agent>("the party that starts the protocol"),
        Coordinator <Agent>("the party that coordinates the process"),
        Participant <Agent>("the party that performs the work")

    parameters
        request_id <String>("unique identifier for the request"),
        data <String>("the data being processed"),
        task <String>("the delegated task"),
        result <Bool>("outcome reported by the participant"),
        status <String>("final status of the request")

    Initiator -> Coordinator: initiate <Action>("start the protocol")[out request_id, out data]
    Coordinator -> Participant: delegate <Action>("delegate the task")[in request_id, in data, out task]
    Participant -> Coordinator: complete <Action>("report completion")[in request_id, in task, out result]
    Coordinator -> Initiator: finalize <Action>("report the final status")[in request_id, in result, out status]
}
`

const compositionTemplate = `// {{.Name}}: a request served by enacting {{.Name}}Processing.
{{.Name}} <Protocol>("a request served by a sub-protocol") {
    roles
        Client <Agent>("the requesting party"),
        Server <Agent>("the service provider"),
        Processor <Agent>("the data processor")

    parameters
        request_id <String>("unique identifier for the request"),
        data <String>("input data for processing"),
        processed_data <String>("the processed result"),
        confirmation <Bool>("processing confirmation")

    Client -> Server: request <Action>("initiate processing")[out request_id, out data]
    {{.Name}}Processing <Enactment>(Server, Processor, in request_id, in data, out processed_data)
    Server -> Client: respond <Action>("return the processed result")[in request_id, in processed_data, out confirmation]
}

{{.Name}}Processing <Protocol>("the data processing step") {
    roles
        Coordinator <Agent>("coordinates the processing"),
        Worker <Agent>("performs the processing")

    parameters
        request_id <String>("identifier of the request being processed"),
        data <String>("data to be processed"),
        task <String>("processing task handed to the worker"),
        processed_data <String>("processed output")

    Coordinator -> Worker: process <Action>("request processing")[in request_id, in data, out task]
    Worker -> Coordinator: complete <Action>("return processed data")[in task, out processed_data]
}
`

const configTemplate = `# bmpp settings for {{.Name}}. Environment variables (BMPP_*) and
# --set overrides take precedence.
log:
  level: info
  format: text

codegen:
  target: {{.Target}}
  package: {{lower .Name}}
  include_validator: true
  output_dir: generated

audit:
  enabled: false
  path: bmpp-audit.db
`
