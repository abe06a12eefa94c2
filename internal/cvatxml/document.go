// Package cvatxml reads and writes the XML interchange document used to move
// annotated tasks in and out of the system in bulk.
//
// Document shape:
//
//	<annotations>
//	  <version>1.1</version>
//	  <task id="7" name="seals" size="2" mode="annotation" overlap="0">
//	    <label name="seal">
//	      <attribute name="pose" input_type="select" default_value="left">
//	        <value>left</value>
//	        <value>right</value>
//	      </attribute>
//	      <skeleton nodes="nose;flipper;tail" edges="0,1;1,2"/>
//	    </label>
//	  </task>
//	  <image id="0" name="frame0.jpg" width="1024" height="768" subset="train">
//	    <box label="seal" xtl="10" ytl="20" xbr="40" ybr="60" occluded="0" group_id="1">
//	      <attribute name="pose">right</attribute>
//	    </box>
//	    <polygon label="seal" points="10,20;40,20;40,60" occluded="0"/>
//	    <points label="seal" points="12,22;14,24" visibility="2,1" occluded="0"/>
//	    <mask label="seal" rle="786427,5" occluded="0"/>
//	    <tag label="validated"/>
//	    <caption>two seals on a rock</caption>
//	  </image>
//	</annotations>
package cvatxml

import "encoding/xml"

// FormatVersion is the interchange document version this package emits.
const FormatVersion = "1.1"

// Numeric and boolean fields stay strings here; coercion happens in the
// parser so a bad value fails with ErrInvalidAttribute instead of a decoder
// error without context.
type xmlDocument struct {
	XMLName xml.Name   `xml:"annotations"`
	Version string     `xml:"version"`
	Task    *xmlTask   `xml:"task"`
	Images  []xmlImage `xml:"image"`
}

type xmlTask struct {
	ID      string     `xml:"id,attr,omitempty"`
	Name    string     `xml:"name,attr"`
	Size    string     `xml:"size,attr,omitempty"`
	Mode    string     `xml:"mode,attr,omitempty"`
	Overlap string     `xml:"overlap,attr,omitempty"`
	Labels  []xmlLabel `xml:"label"`
}

type xmlLabel struct {
	Name       string        `xml:"name,attr"`
	Attributes []xmlAttrSpec `xml:"attribute"`
	Skeleton   *xmlSkeleton  `xml:"skeleton"`
}

type xmlAttrSpec struct {
	Name      string   `xml:"name,attr"`
	InputType string   `xml:"input_type,attr,omitempty"`
	Default   string   `xml:"default_value,attr,omitempty"`
	Values    []string `xml:"value"`
}

type xmlSkeleton struct {
	Nodes string `xml:"nodes,attr"`
	Edges string `xml:"edges,attr,omitempty"`
}

type xmlImage struct {
	ID      string     `xml:"id,attr"`
	Name    string     `xml:"name,attr"`
	Width   string     `xml:"width,attr"`
	Height  string     `xml:"height,attr"`
	Subset  string     `xml:"subset,attr,omitempty"`
	Flipped string     `xml:"flipped,attr,omitempty"`
	Shapes  []xmlShape `xml:",any"`
}

type xmlShape struct {
	XMLName    xml.Name
	ID         string `xml:"id,attr,omitempty"`
	Label      string `xml:"label,attr,omitempty"`
	Occluded   string `xml:"occluded,attr,omitempty"`
	ZOrder     string `xml:"z_order,attr,omitempty"`
	Group      string `xml:"group_id,attr,omitempty"`
	XTL        string `xml:"xtl,attr,omitempty"`
	YTL        string `xml:"ytl,attr,omitempty"`
	XBR        string `xml:"xbr,attr,omitempty"`
	YBR        string `xml:"ybr,attr,omitempty"`
	Points     string `xml:"points,attr,omitempty"`
	Visibility string `xml:"visibility,attr,omitempty"`
	RLE        string `xml:"rle,attr,omitempty"`
	Text       string `xml:",chardata"`

	Attributes []xmlAnnAttr `xml:"attribute"`
}

type xmlAnnAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}
