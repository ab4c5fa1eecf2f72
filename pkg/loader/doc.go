/*
Package loader applies declarative YAML topology documents through the
manager.

A document declares devices with their terminations, provider circuits with
their sides, and the cables between them:

	devices:
	  - name: server1
	    site: lab
	    interfaces:
	      - name: eth0
	  - name: panelA
	    rear_ports:
	      - name: rear1
	        positions: 12
	    front_ports:
	      - name: front1
	        rear_port: rear1
	        position: 1

	circuits:
	  - cid: NET-001
	    provider: upstream
	    sides: [A, Z]

	cables:
	  - a: server1:eth0
	    b: panelA:front1
	    length: 3
	    length_unit: m
	  - a: panelA:rear1
	    b: circuit:NET-001:A

Apply is idempotent: devices and terminations are matched by name, circuits
by CID, and cables whose endpoints are already joined are skipped, so the
same document can be re-applied after edits and only the delta is created.

Documents are validated structurally before anything is written; cable
semantics (compatibility, occupancy) are enforced by the manager per cable.
*/
package loader
